package prompt

import (
	"bytes"
	"strings"
	"testing"
)

func mustDecode(t *testing.T, src string) *Value {
	t.Helper()
	v, err := DecodeBytes([]byte(src))
	if err != nil {
		t.Fatalf("DecodeBytes(%q) error: %v", src, err)
	}
	return v
}

func TestDecodePreservesOrderAndLiterals(t *testing.T) {
	src := `{"z":1,"a":{"nested":true},"m":[1.50,"x",null],"big":12345678901234567890}`
	v := mustDecode(t, src)

	if v.Kind != KindObject {
		t.Fatalf("root kind = %v, want object", v.Kind)
	}
	keys := make([]string, len(v.Members))
	for i, m := range v.Members {
		keys[i] = m.Key
	}
	want := []string{"z", "a", "m", "big"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("member order = %v, want %v", keys, want)
		}
	}
	if got := v.Member("m").Elems[0].Num; string(got) != "1.50" {
		t.Fatalf("number literal = %q, want %q", got, "1.50")
	}
	if got := v.Member("big").Num; string(got) != "12345678901234567890" {
		t.Fatalf("big literal = %q, want unchanged", got)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"empty input", ""},
		{"truncated object", `{"a":`},
		{"trailing garbage", `{} extra`},
		{"two documents", `{}{}`},
		{"bare word", `nope`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeBytes([]byte(tc.src)); err == nil {
				t.Fatalf("DecodeBytes(%q) succeeded, want error", tc.src)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"scalars", `{"s":"hi","n":3.14,"b":false,"x":null}`},
		{"order kept", `{"z":1,"a":2,"k":3}`},
		{"nested", `{"messages":[{"role":"user","text":"hi (there)"}]}`},
		{"empty containers", `{"a":[],"b":{}}`},
		{"escapes", `{"s":"line\nbreak \"quoted\""}`},
		{"html chars kept", `{"s":"a<b & c>d"}`},
		{"top-level string", `"just text"`},
		{"top-level array", `[1,2,[3]]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := mustDecode(t, tc.src)
			out, err := EncodeBytes(v)
			if err != nil {
				t.Fatalf("EncodeBytes error: %v", err)
			}
			if string(out) != tc.src {
				t.Fatalf("round trip = %s, want %s", out, tc.src)
			}
		})
	}
}

func TestEncodeIndent(t *testing.T) {
	v := mustDecode(t, `{"a":[1,2],"b":"x"}`)
	var buf bytes.Buffer
	if err := EncodeIndent(&buf, v, "  "); err != nil {
		t.Fatalf("EncodeIndent error: %v", err)
	}
	want := "{\n  \"a\": [\n    1,\n    2\n  ],\n  \"b\": \"x\"\n}\n"
	if buf.String() != want {
		t.Fatalf("EncodeIndent = %q, want %q", buf.String(), want)
	}
}

func TestFieldPathString(t *testing.T) {
	cases := []struct {
		name string
		path FieldPath
		want string
	}{
		{"root", nil, "$"},
		{"single key", FieldPath{KeyStep("text")}, "text"},
		{"key then index", FieldPath{KeyStep("messages"), IndexStep(1)}, "messages[1]"},
		{"index then key", FieldPath{KeyStep("messages"), IndexStep(0), KeyStep("text")}, "messages[0].text"},
		{"leading index", FieldPath{IndexStep(2), KeyStep("a")}, "[2].a"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.path.String(); got != tc.want {
				t.Fatalf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestWalkOrderAndPaths(t *testing.T) {
	v := mustDecode(t, `{"a":"one","b":[{"c":"two"},"three"],"d":4}`)

	var visited []string
	Walk(v, func(path FieldPath, text string) (string, bool) {
		visited = append(visited, path.String()+"="+text)
		return "", false
	})
	want := []string{"a=one", "b[0].c=two", "b[1]=three"}
	if len(visited) != len(want) {
		t.Fatalf("visited %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("visited %v, want %v", visited, want)
		}
	}
}

func TestWalkReplaces(t *testing.T) {
	v := mustDecode(t, `{"a":"(x","b":[1,"(y)"]}`)

	out, changed := Walk(v, func(path FieldPath, text string) (string, bool) {
		if strings.Count(text, "(") > strings.Count(text, ")") {
			return text + ")", true
		}
		return "", false
	})
	if !changed {
		t.Fatal("Walk reported no change")
	}
	got, err := EncodeBytes(out)
	if err != nil {
		t.Fatalf("EncodeBytes error: %v", err)
	}
	want := `{"a":"(x)","b":[1,"(y)"]}`
	if string(got) != want {
		t.Fatalf("rebuilt document = %s, want %s", got, want)
	}
	// The input tree is untouched.
	if v.Member("a").Str != "(x" {
		t.Fatalf("input tree mutated: %q", v.Member("a").Str)
	}
}

func TestWalkNoChangeSharesTree(t *testing.T) {
	v := mustDecode(t, `{"a":"ok","b":["fine"]}`)
	out, changed := Walk(v, func(FieldPath, string) (string, bool) { return "", false })
	if changed {
		t.Fatal("Walk reported change on identity visit")
	}
	if out != v {
		t.Fatal("unchanged walk should return the input tree")
	}
}
