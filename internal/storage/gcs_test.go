package storage

import (
	"testing"

	"github.com/google/uuid"
)

func TestObjectPath(t *testing.T) {
	tenant := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	got := ObjectPath(tenant, 7, 42, "Alpha_Spec_20260825_120000.pdf")
	want := "6ba7b810-9dad-11d1-80b4-00c04fd430c8/documents/7/42/Alpha_Spec_20260825_120000.pdf"
	if got != want {
		t.Errorf("ObjectPath = %q, want %q", got, want)
	}
}

func TestChecksum(t *testing.T) {
	// Stable, hex-encoded, and a pure function of the input bytes.
	first := Checksum([]byte("hello"))
	second := Checksum([]byte("hello"))
	if first != second {
		t.Errorf("checksum not deterministic: %q vs %q", first, second)
	}
	if len(first) != 64 {
		t.Errorf("checksum length = %d, want 64 hex chars", len(first))
	}
	if first == Checksum([]byte("hello!")) {
		t.Error("different inputs produced identical checksums")
	}
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if first != want {
		t.Errorf("Checksum(hello) = %q, want %q", first, want)
	}
}
