package password

import (
	"strings"
	"testing"
)

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(HashConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	return h
}

func TestHashVerifyRoundtrip(t *testing.T) {
	h := newTestHasher(t)

	encoded, err := h.Hash("hunter2hunter2")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	ok, err := h.Verify("hunter2hunter2", encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("correct password rejected")
	}

	ok, err = h.Verify("wrong-password", encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatal("wrong password accepted")
	}
}

func TestHashProducesPHCFormat(t *testing.T) {
	h := newTestHasher(t)

	encoded, err := h.Hash("hunter2hunter2")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=") {
		t.Fatalf("not a PHC argon2id string: %q", encoded)
	}
	if parts := strings.Split(encoded, "$"); len(parts) != 6 {
		t.Fatalf("expected 6 PHC segments, got %d in %q", len(parts), encoded)
	}
}

func TestHashSaltsEveryCall(t *testing.T) {
	h := newTestHasher(t)

	a, err := h.Hash("hunter2hunter2")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := h.Hash("hunter2hunter2")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestVerifyUsesEmbeddedParameters(t *testing.T) {
	heavy, err := NewHasher(HashConfig{
		Memory:      16 * 1024,
		Time:        2,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	encoded, err := heavy.Hash("hunter2hunter2")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	// A differently configured hasher must still verify: the cost
	// parameters travel inside the PHC string.
	light := newTestHasher(t)
	ok, err := light.Verify("hunter2hunter2", encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("verification must honor embedded parameters")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	h := newTestHasher(t)

	cases := []string{
		"",
		"not-a-hash",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5a2V5",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=64,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!$a2V5a2V5a2V5a2V5a2V5a2V5",
	}
	for _, encoded := range cases {
		if _, err := h.Verify("hunter2hunter2", encoded); err == nil {
			t.Fatalf("expected error for %q", encoded)
		}
	}
}

func TestNewHasherRejectsWeakParameters(t *testing.T) {
	base := HashConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}

	cases := []struct {
		name   string
		mutate func(*HashConfig)
	}{
		{"low memory", func(c *HashConfig) { c.Memory = 1024 }},
		{"zero time", func(c *HashConfig) { c.Time = 0 }},
		{"zero parallelism", func(c *HashConfig) { c.Parallelism = 0 }},
		{"short salt", func(c *HashConfig) { c.SaltLength = 8 }},
		{"short key", func(c *HashConfig) { c.KeyLength = 8 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			if _, err := NewHasher(cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
