package fixer

import (
	"errors"
	"strings"

	"promptlint/internal/scan"

	"fortio.org/safecast"
)

var (
	// ErrNoFindings means there is nothing to repair.
	ErrNoFindings = errors.New("fixer: no findings to repair")
	// ErrUnmatchedClose means the text mixes stray closers with unclosed
	// openers; appending closers cannot repair that.
	ErrUnmatchedClose = errors.New("fixer: unmatched closing delimiter present")
	// ErrVerificationFailed means the repaired text still scans dirty.
	ErrVerificationFailed = errors.New("fixer: repaired text failed verification")
)

// Insertion records one appended closer in the repaired text.
type Insertion struct {
	Offset uint32
	Closer rune
}

// Proposal is a verified repair for one string.
type Proposal struct {
	Original   string
	Repaired   string
	Insertions []Insertion
}

// Propose builds the minimal append-only repair: one closer per unclosed
// opener, innermost first. It declines when any finding is an UnmatchedClose,
// and it re-scans the repaired text under the same policy before returning,
// so a returned proposal is always verified.
func Propose(text string, findings []scan.Finding, policy scan.Policy) (*Proposal, error) {
	if len(findings) == 0 {
		return nil, ErrNoFindings
	}

	opens := make([]scan.Finding, 0, len(findings))
	for _, f := range findings {
		if f.Kind == scan.UnmatchedClose {
			return nil, ErrUnmatchedClose
		}
		opens = append(opens, f)
	}

	var sb strings.Builder
	sb.WriteString(text)
	insertions := make([]Insertion, 0, len(opens))
	// Openers arrive outermost first; close them in reverse.
	for i := len(opens) - 1; i >= 0; i-- {
		off, err := safecast.Conv[uint32](sb.Len())
		if err != nil {
			return nil, err
		}
		insertions = append(insertions, Insertion{Offset: off, Closer: opens[i].Pair.Close})
		sb.WriteRune(opens[i].Pair.Close)
	}

	repaired := sb.String()
	if leftover := scan.Scan(repaired, policy); len(leftover) != 0 {
		return nil, ErrVerificationFailed
	}

	return &Proposal{
		Original:   text,
		Repaired:   repaired,
		Insertions: insertions,
	}, nil
}
