package codes

import (
	"strings"
	"testing"
)

func TestNewVerificationCodeLengthAndAlphabet(t *testing.T) {
	for _, length := range []int{6, 8, 32} {
		code, err := NewVerificationCode(length)
		if err != nil {
			t.Fatalf("length %d: %v", length, err)
		}
		if len(code) != length {
			t.Fatalf("length %d: got %q", length, code)
		}
		for _, c := range code {
			if !strings.ContainsRune(verificationAlphabet, c) {
				t.Fatalf("character %q outside alphabet in %q", c, code)
			}
		}
	}
}

func TestNewVerificationCodeRejectsBadLength(t *testing.T) {
	for _, length := range []int{-1, 0, 5, 33} {
		if _, err := NewVerificationCode(length); err == nil {
			t.Fatalf("length %d: expected error", length)
		}
	}
}

func TestNewVerificationCodeVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := NewVerificationCode(8)
		if err != nil {
			t.Fatalf("NewVerificationCode: %v", err)
		}
		if seen[code] {
			t.Fatalf("duplicate code %q in 50 draws", code)
		}
		seen[code] = true
	}
}

func TestNewResetTokenShapeAndUniqueness(t *testing.T) {
	a := NewResetToken()
	b := NewResetToken()

	if a == b {
		t.Fatal("reset tokens must be unique")
	}
	if len(a) != 36 || strings.Count(a, "-") != 4 {
		t.Fatalf("expected UUID shape, got %q", a)
	}
}
