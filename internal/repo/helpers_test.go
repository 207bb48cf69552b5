package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hoshibaby/spbox-back/internal/domain"
)

// newRepoDB opens a private in-memory database with the full schema.
func newRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id, nickname string) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:           id,
		LoginID:      "login_" + id,
		Email:        id + "@example.com",
		AddressID:    "addr_" + id,
		PasswordHash: "hash",
		Nickname:     nickname,
		Role:         domain.RoleUser,
		Status:       domain.StatusActive,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedBox(t *testing.T, db *gorm.DB, id, ownerID, urlKey string) *domain.Box {
	t.Helper()
	b := &domain.Box{ID: id, OwnerID: ownerID, URLKey: urlKey, Title: "box " + id, AllowAnonymous: true}
	if err := db.Omit("Owner").Create(b).Error; err != nil {
		t.Fatalf("seed box: %v", err)
	}
	return b
}

type msgOpt func(*domain.Message)

func withAuthor(userID string) msgOpt {
	return func(m *domain.Message) { m.AuthorUserID = &userID }
}

func hidden() msgOpt { return func(m *domain.Message) { m.Hidden = true } }

func private() msgOpt { return func(m *domain.Message) { m.PrivateMessage = true } }

func system() msgOpt { return func(m *domain.Message) { m.SystemMessage = true } }

func replied(text string) msgOpt {
	return func(m *domain.Message) {
		*m = m.WithReply(text, domain.ReplyByOwner, time.Now().UTC())
	}
}

func seedMessage(t *testing.T, db *gorm.DB, id, boxID string, at time.Time, opts ...msgOpt) *domain.Message {
	t.Helper()
	m := &domain.Message{
		ID:         id,
		BoxID:      boxID,
		Content:    "content " + id,
		AuthorType: domain.AuthorAnonymous,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	for _, o := range opts {
		o(m)
	}
	if err := CreateMessage(context.Background(), db, m); err != nil {
		t.Fatalf("seed message: %v", err)
	}
	return m
}
