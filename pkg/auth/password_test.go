package auth

import (
	"testing"
)

func TestHashPassword(t *testing.T) {
	password := "testpassword123"

	hashed, err := HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	if hashed == "" {
		t.Error("Hashed password should not be empty")
	}

	if hashed == password {
		t.Error("Hashed password should be different from original")
	}

	hashed2, err := HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password second time: %v", err)
	}

	if hashed == hashed2 {
		t.Error("Different hashes should be generated for same password (bcrypt salt)")
	}
}

func TestCheckPassword(t *testing.T) {
	password := "testpassword123"
	wrongPassword := "wrongpassword"

	hashed, err := HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	if !CheckPassword(hashed, password) {
		t.Error("CheckPassword should return true for correct password")
	}

	if CheckPassword(hashed, wrongPassword) {
		t.Error("CheckPassword should return false for wrong password")
	}

	if CheckPassword(hashed, "") {
		t.Error("CheckPassword should return false for empty password")
	}
}

func TestCheckPasswordEmptyHash(t *testing.T) {
	if CheckPassword("", "password") {
		t.Error("CheckPassword should return false for empty hash")
	}
}
