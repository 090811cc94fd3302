package strings

import (
	"testing"
)

func TestBytesToString(t *testing.T) {
	b := []byte("hello world")
	s := BytesToString(b)

	if s != "hello world" {
		t.Errorf("expected 'hello world', got '%s'", s)
	}

	empty := BytesToString([]byte{})
	if empty != "" {
		t.Errorf("expected empty string, got '%s'", empty)
	}
}

func TestBuilder(t *testing.T) {
	builder := NewBuilder(32)

	builder.WriteString("hello")
	_ = builder.WriteByte(' ')
	builder.WriteString("world")

	if result := builder.String(); result != "hello world" {
		t.Errorf("expected 'hello world', got '%s'", result)
	}
	if builder.Len() != 11 {
		t.Errorf("expected length 11, got %d", builder.Len())
	}

	builder.Reset()
	if builder.Len() != 0 {
		t.Errorf("expected length 0 after reset, got %d", builder.Len())
	}
}

func TestPooledBuilderIsReset(t *testing.T) {
	builder := GetBuilder(Small)
	builder.WriteString("dirty")
	PutBuilder(builder, Small)

	again := GetBuilder(Small)
	defer PutBuilder(again, Small)
	if again.Len() != 0 {
		t.Errorf("expected reset builder, got length %d", again.Len())
	}
}

func TestCloneOwnsMemory(t *testing.T) {
	builder := NewBuilder(8)
	builder.WriteString("abc")
	cloned := Clone(builder.String())
	builder.Reset()
	builder.WriteString("xyz")

	if cloned != "abc" {
		t.Errorf("expected clone to survive builder reuse, got %q", cloned)
	}
}

func TestSprintf(t *testing.T) {
	tests := []struct {
		format   string
		args     []interface{}
		expected string
	}{
		{"plain", nil, "plain"},
		{"%d items", []interface{}{3}, "3 items"},
		{"%s=%v", []interface{}{"k", true}, "k=true"},
	}

	for _, test := range tests {
		if got := Sprintf(test.format, test.args...); got != test.expected {
			t.Errorf("Sprintf(%q) = %q, expected %q", test.format, got, test.expected)
		}
	}
}
