package store

import (
	"math"
	"testing"
)

// TestTypeTagValid tests tag validation
func TestTypeTagValid(t *testing.T) {
	valid := []TypeTag{TagString, TagInt64, TagFloat32, TagFloat64, TagBool}
	for _, tag := range valid {
		if !tag.Valid() {
			t.Errorf("tag %q should be valid", tag)
		}
	}

	invalid := []TypeTag{"", "st", "strx", "STR", "xyz"}
	for _, tag := range invalid {
		if tag.Valid() {
			t.Errorf("tag %q should be invalid", tag)
		}
	}
}

// TestValueConstructors tests that each constructor sets the right tag and
// payload
func TestValueConstructors(t *testing.T) {
	if v := String("hello"); v.Tag() != TagString {
		t.Errorf("String tag = %q, want %q", v.Tag(), TagString)
	} else if s, ok := v.AsString(); !ok || s != "hello" {
		t.Errorf("AsString = (%q, %v), want (hello, true)", s, ok)
	}

	if v := Int64(-42); v.Tag() != TagInt64 {
		t.Errorf("Int64 tag = %q, want %q", v.Tag(), TagInt64)
	} else if i, ok := v.AsInt64(); !ok || i != -42 {
		t.Errorf("AsInt64 = (%d, %v), want (-42, true)", i, ok)
	}

	if v := Float32(1.5); v.Tag() != TagFloat32 {
		t.Errorf("Float32 tag = %q, want %q", v.Tag(), TagFloat32)
	} else if f, ok := v.AsFloat32(); !ok || f != 1.5 {
		t.Errorf("AsFloat32 = (%v, %v), want (1.5, true)", f, ok)
	}

	if v := Float64(math.Pi); v.Tag() != TagFloat64 {
		t.Errorf("Float64 tag = %q, want %q", v.Tag(), TagFloat64)
	} else if f, ok := v.AsFloat64(); !ok || f != math.Pi {
		t.Errorf("AsFloat64 = (%v, %v), want (pi, true)", f, ok)
	}

	if v := Bool(true); v.Tag() != TagBool {
		t.Errorf("Bool tag = %q, want %q", v.Tag(), TagBool)
	} else if b, ok := v.AsBool(); !ok || !b {
		t.Errorf("AsBool = (%v, %v), want (true, true)", b, ok)
	}
}

// TestAccessorTypeGuards tests that accessors refuse the wrong type
func TestAccessorTypeGuards(t *testing.T) {
	v := Int64(7)

	if _, ok := v.AsString(); ok {
		t.Error("AsString on an int value should report false")
	}
	if _, ok := v.AsFloat64(); ok {
		t.Error("AsFloat64 on an int value should report false")
	}
	if _, ok := v.AsBool(); ok {
		t.Error("AsBool on an int value should report false")
	}
}

// TestZeroValueInvalid tests that the zero Value carries no valid tag
func TestZeroValueInvalid(t *testing.T) {
	var v Value
	if v.Tag().Valid() {
		t.Error("zero Value should have an invalid tag")
	}
	if v.Text() != "" {
		t.Errorf("zero Value text = %q, want empty", v.Text())
	}
}

// TestTextRoundTrip tests that Text followed by ParseValue reproduces the
// original value for every type
func TestTextRoundTrip(t *testing.T) {
	cases := []Value{
		String(""),
		String("plain"),
		String("white space and ünicode"),
		Int64(0),
		Int64(math.MaxInt64),
		Int64(math.MinInt64),
		Float32(0),
		Float32(-2.5),
		Float32(math.MaxFloat32),
		Float64(0),
		Float64(math.Pi),
		Float64(-math.MaxFloat64),
		Bool(true),
		Bool(false),
	}

	for _, want := range cases {
		got, err := ParseValue(want.Tag(), want.Text())
		if err != nil {
			t.Errorf("ParseValue(%q, %q) failed: %v", want.Tag(), want.Text(), err)
			continue
		}
		if got != want {
			t.Errorf("round trip of %q %q: got %+v, want %+v", want.Tag(), want.Text(), got, want)
		}
	}
}

// TestTextCanonicalForms tests a few fixed textual encodings
func TestTextCanonicalForms(t *testing.T) {
	cases := []struct {
		value Value
		want  string
	}{
		{Int64(-17), "-17"},
		{Float64(0.5), "0.5"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{String("as-is"), "as-is"},
	}

	for _, c := range cases {
		if got := c.value.Text(); got != c.want {
			t.Errorf("Text() = %q, want %q", got, c.want)
		}
	}
}

// TestParseValueMismatch tests that malformed payloads yield TypeMismatch
func TestParseValueMismatch(t *testing.T) {
	cases := []struct {
		tag  TypeTag
		text string
	}{
		{TagInt64, "not-a-number"},
		{TagInt64, "1.5"},
		{TagInt64, ""},
		{TagFloat32, "abc"},
		{TagFloat64, ""},
		{TagBool, "True"},
		{TagBool, "1"},
		{TagBool, ""},
	}

	for _, c := range cases {
		_, err := ParseValue(c.tag, c.text)
		if err == nil {
			t.Errorf("ParseValue(%q, %q) should fail", c.tag, c.text)
			continue
		}
		if CodeOf(err) != RetCTypeMismatch {
			t.Errorf("ParseValue(%q, %q) code = %v, want RetCTypeMismatch", c.tag, c.text, CodeOf(err))
		}
	}
}

// TestParseValueUnknownTag tests that an unknown tag is rejected as an
// invalid operation
func TestParseValueUnknownTag(t *testing.T) {
	_, err := ParseValue("xyz", "whatever")
	if err == nil {
		t.Fatal("ParseValue with unknown tag should fail")
	}
	if CodeOf(err) != RetCInvalidOperation {
		t.Errorf("code = %v, want RetCInvalidOperation", CodeOf(err))
	}
}
