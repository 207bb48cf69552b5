package repo

import (
	"context"
	"errors"
	"testing"
)

func TestUserLookups(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	seedUser(t, db, "u1", "Alice")

	for name, fn := range map[string]func() (string, error){
		"id": func() (string, error) {
			u, err := GetUserByID(ctx, db, "u1")
			if err != nil {
				return "", err
			}
			return u.ID, nil
		},
		"login": func() (string, error) {
			u, err := GetUserByLoginID(ctx, db, "login_u1")
			if err != nil {
				return "", err
			}
			return u.ID, nil
		},
		"email": func() (string, error) {
			u, err := GetUserByEmail(ctx, db, "u1@example.com")
			if err != nil {
				return "", err
			}
			return u.ID, nil
		},
		"address": func() (string, error) {
			u, err := GetUserByAddressID(ctx, db, "addr_u1")
			if err != nil {
				return "", err
			}
			return u.ID, nil
		},
	} {
		got, err := fn()
		if err != nil || got != "u1" {
			t.Fatalf("lookup by %s: got %q err=%v", name, got, err)
		}
	}

	if _, err := GetUserByLoginID(ctx, db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserExistsHelpers(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	seedUser(t, db, "u1", "Alice")

	if ok, err := LoginIDExists(ctx, db, "login_u1"); err != nil || !ok {
		t.Fatalf("LoginIDExists = %v, %v", ok, err)
	}
	if ok, err := EmailExists(ctx, db, "nobody@example.com"); err != nil || ok {
		t.Fatalf("EmailExists = %v, %v", ok, err)
	}
	if ok, err := AddressIDExists(ctx, db, "addr_u1"); err != nil || !ok {
		t.Fatalf("AddressIDExists = %v, %v", ok, err)
	}
}

func TestUpdateUserFields_And_Delete(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	seedUser(t, db, "u1", "Alice")

	if err := UpdateUserFields(ctx, db, "u1", map[string]any{"nickname": "Alicia"}); err != nil {
		t.Fatalf("UpdateUserFields: %v", err)
	}
	u, _ := GetUserByID(ctx, db, "u1")
	if u.Nickname != "Alicia" {
		t.Fatalf("nickname not updated: %q", u.Nickname)
	}
	if err := UpdateUserFields(ctx, db, "ghost", map[string]any{"nickname": "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}

	if err := DeleteUser(ctx, db, "u1"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := GetUserByID(ctx, db, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected user gone, got %v", err)
	}
}
