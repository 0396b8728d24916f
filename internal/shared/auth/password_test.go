package auth

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword() failed: %v", err)
	}

	if hash == "correct horse battery staple" {
		t.Fatal("HashPassword() returned plaintext")
	}

	if err := VerifyPassword(hash, "correct horse battery staple"); err != nil {
		t.Errorf("VerifyPassword() failed for correct password: %v", err)
	}

	if err := VerifyPassword(hash, "wrong password"); err == nil {
		t.Error("VerifyPassword() accepted wrong password")
	}
}

func TestHashPassword_RejectsOverlongInput(t *testing.T) {
	long := make([]byte, maxPasswordBytes+1)
	for i := range long {
		long[i] = 'a'
	}

	if _, err := HashPassword(string(long)); err != ErrPasswordTooLong {
		t.Errorf("HashPassword() error = %v, want ErrPasswordTooLong", err)
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	h1, _ := HashPassword("password123")
	h2, _ := HashPassword("password123")

	if h1 == h2 {
		t.Error("two hashes of the same password are identical, bcrypt salt missing")
	}
}
