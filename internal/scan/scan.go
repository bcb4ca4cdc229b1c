package scan

import (
	"fmt"

	"fortio.org/safecast"
)

// Pair is one recognized delimiter pair.
type Pair struct {
	Open  rune
	Close rune
}

var (
	Paren   = Pair{'(', ')'}
	Bracket = Pair{'[', ']'}
	Brace   = Pair{'{', '}'}
)

func (p Pair) String() string {
	return fmt.Sprintf("%c%c", p.Open, p.Close)
}

// Kind classifies a balance finding.
type Kind uint8

const (
	// UnmatchedClose is a closing delimiter with no matching opener.
	UnmatchedClose Kind = iota
	// UnclosedOpen is an opening delimiter never closed.
	UnclosedOpen
)

func (k Kind) String() string {
	switch k {
	case UnmatchedClose:
		return "unmatched_close"
	case UnclosedOpen:
		return "unclosed_open"
	}
	return "unknown"
}

// Finding is one balance violation in a scanned text.
// Offset is the byte offset of the offending delimiter within the text.
// Depth is the number of delimiters still open when the violation was
// detected.
type Finding struct {
	Kind   Kind
	Pair   Pair
	Offset uint32
	Depth  int
}

// Policy controls which runes the scanner treats as structural.
// Quotes lists rune pairs that open and close an opaque region: delimiters
// inside it are ignored. Escape, when non-zero, makes the following rune
// non-structural everywhere.
type Policy struct {
	Pairs  []Pair
	Quotes []rune
	Escape rune
}

// DefaultPolicy tracks (), [] and {} with backslash escaping and no quote
// regions. Prose uses quotes as apostrophes far too often for quote tracking
// to be a safe default.
func DefaultPolicy() Policy {
	return Policy{
		Pairs:  []Pair{Paren, Bracket, Brace},
		Escape: '\\',
	}
}

func (p Policy) openPair(r rune) (Pair, bool) {
	for _, pair := range p.Pairs {
		if pair.Open == r {
			return pair, true
		}
	}
	return Pair{}, false
}

func (p Policy) closePair(r rune) (Pair, bool) {
	for _, pair := range p.Pairs {
		if pair.Close == r {
			return pair, true
		}
	}
	return Pair{}, false
}

func (p Policy) isQuote(r rune) bool {
	for _, q := range p.Quotes {
		if q == r {
			return true
		}
	}
	return false
}

type openDelim struct {
	pair Pair
	off  uint32
}

// Scan walks text left to right and reports every balance violation.
// A closing delimiter that does not match the innermost open one is reported
// as UnmatchedClose and does not pop the stack, so the opener still gets its
// own UnclosedOpen finding at the end. Leftover openers are reported
// outermost first. The input text is never modified; a nil result means the
// text is balanced.
func Scan(text string, policy Policy) []Finding {
	var findings []Finding
	var stack []openDelim

	escaped := false
	var quote rune

	for i, r := range text {
		if escaped {
			escaped = false
			continue
		}
		if policy.Escape != 0 && r == policy.Escape {
			escaped = true
			continue
		}
		if quote != 0 {
			if r == quote {
				quote = 0
			}
			continue
		}
		if policy.isQuote(r) {
			quote = r
			continue
		}

		if pair, ok := policy.openPair(r); ok {
			stack = append(stack, openDelim{pair: pair, off: off32(i)})
			continue
		}
		if pair, ok := policy.closePair(r); ok {
			if n := len(stack); n > 0 && stack[n-1].pair == pair {
				stack = stack[:n-1]
				continue
			}
			findings = append(findings, Finding{
				Kind:   UnmatchedClose,
				Pair:   pair,
				Offset: off32(i),
				Depth:  len(stack),
			})
		}
	}

	for depth, open := range stack {
		findings = append(findings, Finding{
			Kind:   UnclosedOpen,
			Pair:   open.pair,
			Offset: open.off,
			Depth:  depth,
		})
	}
	return findings
}

func off32(i int) uint32 {
	off, err := safecast.Conv[uint32](i)
	if err != nil {
		panic(fmt.Errorf("text offset overflows uint32: %w", err))
	}
	return off
}
