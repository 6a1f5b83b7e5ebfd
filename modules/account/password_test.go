package account

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("s3cret-pass")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("Hash() returned the plaintext")
	}
	if !h.Verify("s3cret-pass", hash) {
		t.Error("Verify() = false for the right password")
	}
	if h.Verify("wrong", hash) {
		t.Error("Verify() = true for the wrong password")
	}
}

func TestPasswordHasher_SaltsEachHash(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	if a == b {
		t.Error("two hashes of the same password are identical")
	}
}

func TestNewPasswordHasher_Cost(t *testing.T) {
	tests := []struct {
		name string
		cost int
		want int
	}{
		{name: "in range", cost: 5, want: 5},
		{name: "too low", cost: 1, want: DefaultBcryptCost},
		{name: "too high", cost: 99, want: DefaultBcryptCost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewPasswordHasher(tt.cost).cost; got != tt.want {
				t.Errorf("cost = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPasswordHasher_RejectsOverlongInput(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	if _, err := h.Hash(strings.Repeat("x", 73)); err == nil {
		t.Error("Hash() accepted a 73 byte password")
	}
}
