package prompt

// Visitor sees each string leaf in document order and may return a
// replacement for it. Returning changed=false keeps the original text.
type Visitor func(path FieldPath, text string) (replacement string, changed bool)

// Walk visits every string leaf of doc in document order and returns a new
// tree with the replacements applied. Containers along a changed path are
// copied; everything untouched is shared with the input. The boolean reports
// whether anything changed.
func Walk(doc *Value, visit Visitor) (*Value, bool) {
	return walkValue(doc, nil, visit)
}

func walkValue(v *Value, path FieldPath, visit Visitor) (*Value, bool) {
	if v == nil {
		return nil, false
	}
	switch v.Kind {
	case KindString:
		if replacement, changed := visit(path.Clone(), v.Str); changed {
			return String(replacement), true
		}
		return v, false
	case KindArray:
		return walkArray(v, path, visit)
	case KindObject:
		return walkObject(v, path, visit)
	}
	return v, false
}

func walkArray(v *Value, path FieldPath, visit Visitor) (*Value, bool) {
	var out *Value
	for i, el := range v.Elems {
		next, changed := walkValue(el, append(path, IndexStep(i)), visit)
		if !changed {
			continue
		}
		if out == nil {
			out = &Value{Kind: KindArray, Elems: append([]*Value(nil), v.Elems...)}
		}
		out.Elems[i] = next
	}
	if out == nil {
		return v, false
	}
	return out, true
}

func walkObject(v *Value, path FieldPath, visit Visitor) (*Value, bool) {
	var out *Value
	for i, m := range v.Members {
		next, changed := walkValue(m.Value, append(path, KeyStep(m.Key)), visit)
		if !changed {
			continue
		}
		if out == nil {
			out = &Value{Kind: KindObject, Members: append([]Member(nil), v.Members...)}
		}
		out.Members[i].Value = next
	}
	if out == nil {
		return v, false
	}
	return out, true
}
