package testhelper

import (
	"context"
	"testing"
)

func TestSetupTestDB_Smoke(t *testing.T) {
	pool := SetupTestDB(t)
	user := SeedUser(t, pool)

	var email string
	err := pool.QueryRow(context.Background(), `SELECT email FROM users WHERE id = $1`, user.ID).Scan(&email)
	if err != nil {
		t.Fatalf("usuário não encontrado: %v", err)
	}
	if email != user.Email {
		t.Fatalf("email %q, esperado %q", email, user.Email)
	}
}
