package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Delimiter balance findings inside field text.
	LintInfo            Code = 1000
	LintUnmatchedClose  Code = 1001
	LintUnclosedOpen    Code = 1002
	LintUnverifiableFix Code = 1003
	LintFixApplied      Code = 1004

	// Template control-flow findings.
	FlowInfo                Code = 2000
	FlowIllegalNesting      Code = 2001
	FlowUnmatchedBrace      Code = 2002
	FlowUnclosedBrace       Code = 2003
	FlowOrphanElseIf        Code = 2004
	FlowOrphanElse          Code = 2005
	FlowOrphanEndIf         Code = 2006
	FlowElseIfAfterElse     Code = 2007
	FlowDuplicateElse       Code = 2008
	FlowUnclosedIf          Code = 2009
	FlowUnbalancedCondition Code = 2010

	// Input handling.
	IOInfo           Code = 4000
	IOLoadFileError  Code = 4001
	IOMalformedInput Code = 4002
)

var codeDescription = map[Code]string{
	UnknownCode: "unknown diagnostic",

	LintInfo:            "lint information",
	LintUnmatchedClose:  "closing delimiter without a matching opener",
	LintUnclosedOpen:    "opening delimiter never closed",
	LintUnverifiableFix: "proposed repair failed verification",
	LintFixApplied:      "repair applied",

	FlowInfo:                "flow information",
	FlowIllegalNesting:      "braced expressions must not nest",
	FlowUnmatchedBrace:      "closing brace without an opening brace",
	FlowUnclosedBrace:       "opening brace never closed",
	FlowOrphanElseIf:        "{#elseif} without matching {#if}",
	FlowOrphanElse:          "{#else} without matching {#if}",
	FlowOrphanEndIf:         "{#endif} without matching {#if}",
	FlowElseIfAfterElse:     "{#elseif} after terminal {#else}",
	FlowDuplicateElse:       "second {#else} for the same {#if}",
	FlowUnclosedIf:          "{#if} without matching {#endif}",
	FlowUnbalancedCondition: "unbalanced parentheses in condition",

	IOInfo:           "input information",
	IOLoadFileError:  "failed to load input",
	IOMalformedInput: "input is not valid JSON",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LNT%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("FLW%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
