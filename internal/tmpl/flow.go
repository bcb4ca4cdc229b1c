// Package tmpl validates the templating constructs embedded in field text:
// single-level braced expressions and {#if}/{#elseif}/{#else}/{#endif}
// conditional blocks.
package tmpl

import (
	"fmt"
	"regexp"
	"strings"

	"promptlint/internal/scan"

	"fortio.org/safecast"
)

// Kind classifies a flow finding.
type Kind uint8

const (
	// IllegalNesting is a braced expression opened inside another one.
	IllegalNesting Kind = iota
	// UnmatchedBrace is a closing brace with no opening brace.
	UnmatchedBrace
	// UnclosedBrace is an opening brace never closed.
	UnclosedBrace
	// OrphanElseIf is an {#elseif} with no open {#if}.
	OrphanElseIf
	// OrphanElse is an {#else} with no open {#if}.
	OrphanElse
	// OrphanEndIf is an {#endif} with no open {#if}.
	OrphanEndIf
	// ElseIfAfterElse is an {#elseif} after the block's {#else}.
	ElseIfAfterElse
	// DuplicateElse is a second {#else} in the same block.
	DuplicateElse
	// UnclosedIf is an {#if} with no matching {#endif}.
	UnclosedIf
	// UnbalancedCondition is an {#if}/{#elseif} condition with unbalanced
	// parentheses.
	UnbalancedCondition
)

func (k Kind) String() string {
	switch k {
	case IllegalNesting:
		return "illegal_nesting"
	case UnmatchedBrace:
		return "unmatched_brace"
	case UnclosedBrace:
		return "unclosed_brace"
	case OrphanElseIf:
		return "orphan_elseif"
	case OrphanElse:
		return "orphan_else"
	case OrphanEndIf:
		return "orphan_endif"
	case ElseIfAfterElse:
		return "elseif_after_else"
	case DuplicateElse:
		return "duplicate_else"
	case UnclosedIf:
		return "unclosed_if"
	case UnbalancedCondition:
		return "unbalanced_condition"
	}
	return "unknown"
}

// Finding is one flow violation. Offset is the byte offset of the construct
// within the checked text.
type Finding struct {
	Kind   Kind
	Offset uint32
}

// TokenKind discriminates the conditional tokens.
type TokenKind uint8

const (
	TokIf TokenKind = iota
	TokElseIf
	TokElse
	TokEndIf
)

// Token is one conditional construct found in the text. Cond holds the
// condition text for {#if} and {#elseif}, CondOff its byte offset.
type Token struct {
	Kind    TokenKind
	Offset  uint32
	End     uint32
	Cond    string
	CondOff uint32
}

var tokenRe = regexp.MustCompile(`\{#(if|elseif)\b([^{}]*)\}|\{#(else|endif)\}`)

// Tokens extracts the conditional tokens of text in order of appearance.
func Tokens(text string) []Token {
	matches := tokenRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		tok := Token{Offset: off32(m[0]), End: off32(m[1])}
		switch {
		case m[2] >= 0:
			if text[m[2]:m[3]] == "if" {
				tok.Kind = TokIf
			} else {
				tok.Kind = TokElseIf
			}
			tok.Cond = strings.TrimSpace(text[m[4]:m[5]])
			tok.CondOff = off32(m[4] + leadingSpace(text[m[4]:m[5]]))
		case text[m[6]:m[7]] == "else":
			tok.Kind = TokElse
		default:
			tok.Kind = TokEndIf
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Check validates the flow constructs of text and returns every violation:
// braces must not nest, every brace must pair up, conditional blocks must be
// well formed, and conditions must carry balanced parentheses.
func Check(text string) []Finding {
	findings := checkBraces(text)

	type frame struct {
		off     uint32
		hasElse bool
	}
	var stack []frame

	for _, tok := range Tokens(text) {
		switch tok.Kind {
		case TokIf:
			stack = append(stack, frame{off: tok.Offset})
		case TokElseIf:
			if len(stack) == 0 {
				findings = append(findings, Finding{Kind: OrphanElseIf, Offset: tok.Offset})
			} else if stack[len(stack)-1].hasElse {
				findings = append(findings, Finding{Kind: ElseIfAfterElse, Offset: tok.Offset})
			}
		case TokElse:
			switch {
			case len(stack) == 0:
				findings = append(findings, Finding{Kind: OrphanElse, Offset: tok.Offset})
			case stack[len(stack)-1].hasElse:
				findings = append(findings, Finding{Kind: DuplicateElse, Offset: tok.Offset})
			default:
				stack[len(stack)-1].hasElse = true
			}
		case TokEndIf:
			if len(stack) == 0 {
				findings = append(findings, Finding{Kind: OrphanEndIf, Offset: tok.Offset})
			} else {
				stack = stack[:len(stack)-1]
			}
		}
		if tok.Kind == TokIf || tok.Kind == TokElseIf {
			if len(scan.Scan(tok.Cond, condPolicy)) != 0 {
				findings = append(findings, Finding{Kind: UnbalancedCondition, Offset: tok.CondOff})
			}
		}
	}
	for _, fr := range stack {
		findings = append(findings, Finding{Kind: UnclosedIf, Offset: fr.off})
	}
	return findings
}

var condPolicy = scan.Policy{Pairs: []scan.Pair{scan.Paren}}

func checkBraces(text string) []Finding {
	var findings []Finding
	var opens []uint32
	for i, r := range text {
		switch r {
		case '{':
			if len(opens) > 0 {
				findings = append(findings, Finding{Kind: IllegalNesting, Offset: off32(i)})
			}
			opens = append(opens, off32(i))
		case '}':
			if len(opens) == 0 {
				findings = append(findings, Finding{Kind: UnmatchedBrace, Offset: off32(i)})
			} else {
				opens = opens[:len(opens)-1]
			}
		}
	}
	for _, off := range opens {
		findings = append(findings, Finding{Kind: UnclosedBrace, Offset: off})
	}
	return findings
}

func leadingSpace(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t"))
}

func off32(i int) uint32 {
	off, err := safecast.Conv[uint32](i)
	if err != nil {
		panic(fmt.Errorf("text offset overflows uint32: %w", err))
	}
	return off
}
