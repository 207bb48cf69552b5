package domain

import "time"

// Idempotency represents a recorded result of a previously processed
// message submission, keyed by (actor_id, box_key, key). It lets a visitor
// retry POST /messages without leaving the same message twice: the original
// message id is returned instead of creating a new one.
//
// ActorID is the login id of the writer, or the client IP for anonymous
// visitors.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	ActorID   string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_actor_box_key,priority:1"`
	BoxKey    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_actor_box_key,priority:2"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_actor_box_key,priority:3"`
	MessageID string    `gorm:"type:TEXT NOT NULL"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
