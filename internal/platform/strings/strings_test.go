package strings

import (
	"testing"

	"guildaudit/internal/platform/testkit"
)

func TestMustString(t *testing.T) {
	if got := MustString("ok", "name"); got != "ok" {
		t.Fatalf("expected passthrough, got %q", got)
	}
	testkit.MustPanic(t, func() { MustString("   ", "name") })
}

func TestPtrDeref(t *testing.T) {
	if Ptr("") != nil {
		t.Fatalf("empty string must yield nil")
	}
	p := Ptr("x")
	if p == nil || Deref(p) != "x" {
		t.Fatalf("round trip failed: %v", p)
	}
	if Deref(nil) != "" {
		t.Fatalf("nil must deref to empty")
	}
}

func TestIfEmpty(t *testing.T) {
	def := []string{"a"}
	if got := IfEmpty(nil, def); len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected default, got %v", got)
	}
	if got := IfEmpty([]string{"b"}, def); got[0] != "b" {
		t.Fatalf("expected original, got %v", got)
	}
}

func TestSQLNull(t *testing.T) {
	if SQLNull(" ") != nil {
		t.Fatalf("blank must map to nil")
	}
	if SQLNull("x") != "x" {
		t.Fatalf("content must pass through")
	}
}
