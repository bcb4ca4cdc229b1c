package prompt

import (
	"encoding/json"
)

// Kind discriminates the variants of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "unknown"
}

// Member is one key/value entry of an object, in document order.
type Member struct {
	Key   string
	Value *Value
}

// Value is one JSON node. Objects keep their members in the order the
// document spelled them, and numbers keep their literal text, so a document
// round-trips without spurious churn.
type Value struct {
	Kind    Kind
	Members []Member
	Elems   []*Value
	Str     string
	Num     json.Number
	Bool    bool
}

func Null() *Value           { return &Value{Kind: KindNull} }
func String(s string) *Value { return &Value{Kind: KindString, Str: s} }
func Boolean(b bool) *Value  { return &Value{Kind: KindBool, Bool: b} }

func Array(el ...*Value) *Value {
	return &Value{Kind: KindArray, Elems: el}
}

func Object(members ...Member) *Value {
	return &Value{Kind: KindObject, Members: members}
}

func Number(lit string) *Value {
	return &Value{Kind: KindNumber, Num: json.Number(lit)}
}

// Member returns the value for key, or nil when absent.
func (v *Value) Member(key string) *Value {
	if v == nil || v.Kind != KindObject {
		return nil
	}
	for i := range v.Members {
		if v.Members[i].Key == key {
			return v.Members[i].Value
		}
	}
	return nil
}
