package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if ok, err := CheckPassword(hash, "correct horse"); err != nil || !ok {
		t.Fatalf("matching password rejected: %v %v", ok, err)
	}
	if ok, err := CheckPassword(hash, "battery staple"); err != nil || ok {
		t.Fatalf("wrong password accepted: %v %v", ok, err)
	}
}

func TestRejectPasswordCostsAsMuchAsARealCheck(t *testing.T) {
	cost, err := bcrypt.Cost(dummyHash())
	if err != nil {
		t.Fatalf("dummy hash is not a bcrypt hash: %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Fatalf("dummy hash cost = %d, want %d", cost, bcrypt.DefaultCost)
	}
	RejectPassword("anything")
}
