package secret

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashVerify(t *testing.T) {
	Cost = bcrypt.MinCost

	h, err := Hash("alice@example.comhunter2")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if strings.Contains(h, "hunter2") {
		t.Fatal("hash contains plaintext")
	}
	if !Verify(h, "alice@example.comhunter2") {
		t.Error("expected match")
	}
	if Verify(h, "alice@example.comhunter3") {
		t.Error("expected mismatch")
	}
	if Verify("", "") {
		t.Error("empty hash must never verify")
	}
}

func TestHash_LongInput(t *testing.T) {
	Cost = bcrypt.MinCost

	long := strings.Repeat("x", 200)
	h, err := Hash(long)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if Verify(h, long[:100]) {
		t.Error("prefix of a long secret must not verify")
	}
	if !Verify(h, long) {
		t.Error("expected match")
	}
}

func TestHash_Salted(t *testing.T) {
	Cost = bcrypt.MinCost

	a, _ := Hash("4242424242424242")
	b, _ := Hash("4242424242424242")
	if a == b {
		t.Error("expected distinct salts")
	}
}

func TestPlaceholder(t *testing.T) {
	Cost = bcrypt.MinCost

	p := Placeholder()
	if p == "" {
		t.Fatal("expected a hash")
	}
	if Placeholder() != p {
		t.Error("expected a stable placeholder")
	}
	for _, plain := range []string{"", "placeholder", "jane@example.compass123"} {
		if Verify(p, plain) {
			t.Errorf("placeholder verified %q", plain)
		}
	}
}
