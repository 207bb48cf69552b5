package services

import (
	"context"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hoshibaby/spbox-back/internal/domain"
	"github.com/hoshibaby/spbox-back/internal/repo"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type account struct {
	User *domain.User
	Box  *domain.Box
}

// signup registers loginID through UserService with a fixed password.
func signup(t *testing.T, db *gorm.DB, loginID, nickname string) account {
	t.Helper()
	us := &UserService{DB: db}
	u, b, err := us.Signup(context.Background(), SignupInput{
		LoginID:         loginID,
		Email:           loginID + "@example.com",
		Password:        "password1",
		PasswordConfirm: "password1",
		Nickname:        nickname,
	})
	if err != nil {
		t.Fatalf("signup %s: %v", loginID, err)
	}
	return account{User: u, Box: b}
}

func setBoxFlags(t *testing.T, db *gorm.DB, boxID string, allowAnon, aiMode bool) {
	t.Helper()
	if err := repo.UpdateBoxFlags(context.Background(), db, boxID, map[string]any{
		"allow_anonymous": allowAnon,
		"ai_mode":         aiMode,
	}); err != nil {
		t.Fatalf("set flags: %v", err)
	}
}

func mustMessage(t *testing.T, db *gorm.DB, id string) *domain.Message {
	t.Helper()
	m, err := repo.GetMessage(context.Background(), db, id)
	if err != nil {
		t.Fatalf("get message %s: %v", id, err)
	}
	return m
}

func notificationsOf(t *testing.T, db *gorm.DB, userID string) []domain.Notification {
	t.Helper()
	ns, err := repo.ListNotifications(context.Background(), db, userID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	return ns
}

type fakeAI struct {
	reply string
	err   error
	calls int
}

func (f *fakeAI) Reply(_ context.Context, content string) (string, error) {
	f.calls++
	return f.reply, f.err
}
