package utils

import (
	"regexp"
	"testing"
)

func TestGenerateDoleanceReference_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^DOL-\d{4}-[0-9A-F]{6}\d{4}$`)

	for i := 0; i < 20; i++ {
		ref := GenerateDoleanceReference()
		if !pattern.MatchString(ref) {
			t.Errorf("reference %q does not match expected format", ref)
		}
	}
}

func TestGenerateInterventionReference_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^INT-\d{4}-\d{6}$`)

	ref := GenerateInterventionReference()
	if !pattern.MatchString(ref) {
		t.Errorf("reference %q does not match expected format", ref)
	}
}

func TestHashDescription_Deterministic(t *testing.T) {
	description := "Nid de poule Rue X"

	first := HashDescription(description)
	second := HashDescription(description)

	if first != second {
		t.Errorf("hash is not deterministic: %s != %s", first, second)
	}

	// sha256 of the exact text, 0x-prefixed
	expected := "0xc8f0bf40c5ecf9ca7160abc0103ae97b023712659957033322654cda0efb243d"
	if first != expected {
		t.Errorf("unexpected hash: got %s, want %s", first, expected)
	}
}

func TestHashDescription_DiffersPerInput(t *testing.T) {
	if HashDescription("a") == HashDescription("b") {
		t.Error("different descriptions produced the same hash")
	}
}
