package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Decode parses one JSON document from r into a Value tree. Numbers are kept
// as their literal text and object member order is preserved. Trailing
// non-whitespace after the document is an error.
func Decode(r io.Reader) (*Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing content after document")
	}
	return v, nil
}

// DecodeBytes parses one JSON document held in data.
func DecodeBytes(data []byte) (*Value, error) {
	return Decode(bytes.NewReader(data))
}

func decodeValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (*Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)
	case string:
		return String(t), nil
	case json.Number:
		return &Value{Kind: KindNumber, Num: t}, nil
	case bool:
		return Boolean(t), nil
	case nil:
		return Null(), nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func decodeObject(dec *json.Decoder) (*Value, error) {
	obj := &Value{Kind: KindObject}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string: %v", keyTok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		obj.Members = append(obj.Members, Member{Key: key, Value: val})
	}
	// Consume the closing '}'.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder) (*Value, error) {
	arr := &Value{Kind: KindArray}
	for dec.More() {
		el, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		arr.Elems = append(arr.Elems, el)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}

// Encode writes v as compact JSON.
func Encode(w io.Writer, v *Value) error {
	var buf bytes.Buffer
	if err := writeValue(&buf, v, "", 0); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// EncodeIndent writes v as JSON indented with indent per nesting level and a
// trailing newline, matching what editors expect from a formatted document.
func EncodeIndent(w io.Writer, v *Value, indent string) error {
	var buf bytes.Buffer
	if err := writeValue(&buf, v, indent, 0); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

// EncodeBytes returns v as compact JSON.
func EncodeBytes(v *Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v, "", 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v *Value, indent string, depth int) error {
	if v == nil {
		buf.WriteString("null")
		return nil
	}
	switch v.Kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.Bool {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		if v.Num == "" {
			buf.WriteString("0")
		} else {
			buf.WriteString(string(v.Num))
		}
	case KindString:
		return writeString(buf, v.Str)
	case KindArray:
		return writeArray(buf, v, indent, depth)
	case KindObject:
		return writeObject(buf, v, indent, depth)
	default:
		return fmt.Errorf("cannot encode value of kind %d", v.Kind)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	// json.Marshal would escape <, > and &, churning text we never touched.
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1) // drop the encoder's newline
	return nil
}

func writeArray(buf *bytes.Buffer, v *Value, indent string, depth int) error {
	if len(v.Elems) == 0 {
		buf.WriteString("[]")
		return nil
	}
	buf.WriteByte('[')
	for i, el := range v.Elems {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeNewlineIndent(buf, indent, depth+1)
		if err := writeValue(buf, el, indent, depth+1); err != nil {
			return err
		}
	}
	writeNewlineIndent(buf, indent, depth)
	buf.WriteByte(']')
	return nil
}

func writeObject(buf *bytes.Buffer, v *Value, indent string, depth int) error {
	if len(v.Members) == 0 {
		buf.WriteString("{}")
		return nil
	}
	buf.WriteByte('{')
	for i, m := range v.Members {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeNewlineIndent(buf, indent, depth+1)
		if err := writeString(buf, m.Key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if indent != "" {
			buf.WriteByte(' ')
		}
		if err := writeValue(buf, m.Value, indent, depth+1); err != nil {
			return err
		}
	}
	writeNewlineIndent(buf, indent, depth)
	buf.WriteByte('}')
	return nil
}

func writeNewlineIndent(buf *bytes.Buffer, indent string, depth int) {
	if indent == "" {
		return
	}
	buf.WriteByte('\n')
	for i := 0; i < depth; i++ {
		buf.WriteString(indent)
	}
}
