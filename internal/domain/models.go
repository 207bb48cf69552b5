// Package domain defines the persistence models for users, boxes, messages,
// blacklist entries, and notifications. These types are mapped with GORM and
// form the core data layer of the postbox service.
package domain

import "time"

// Role is the account role of a User.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// UserStatus is the moderation status of a User. BANNED accounts cannot log in.
type UserStatus string

const (
	StatusActive UserStatus = "ACTIVE"
	StatusBanned UserStatus = "BANNED"
)

// AuthorType classifies who wrote a message relative to the box it lives in.
type AuthorType string

const (
	AuthorOwner     AuthorType = "OWNER"
	AuthorAnonymous AuthorType = "ANONYMOUS"
)

// ReplyAuthorType records who produced a message reply.
type ReplyAuthorType string

const (
	ReplyByOwner ReplyAuthorType = "OWNER"
	ReplyByAI    ReplyAuthorType = "AI"
)

// NotificationType enumerates the alert kinds kept in a user's feed.
type NotificationType string

const (
	NotificationComment      NotificationType = "COMMENT"
	NotificationOwnerReply   NotificationType = "OWNER_REPLY"
	NotificationAIReply      NotificationType = "AI_REPLY"
	NotificationSystemNotice NotificationType = "SYSTEM_NOTICE"
	NotificationSystemAlert  NotificationType = "SYSTEM_ALERT"
)

// User is a registered account. Every user owns exactly one Box, created in
// the same transaction as the account.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - LoginID: the identifier typed at login; unique.
//   - Email: unique contact address.
//   - AddressID: unique public handle used in profile URLs.
//   - PasswordHash: bcrypt hash, never serialized.
//   - Nickname / ProfileImageURL / HeaderImageURL / TodayMessage: profile fields.
//   - AIConsultingEnabled: user preference for AI counselling features.
//   - Role / Status: authorization and moderation state.
type User struct {
	ID                  string     `json:"id"                    gorm:"type:char(36);primaryKey"`
	LoginID             string     `json:"login_id"              gorm:"type:varchar(64);not null;uniqueIndex:ux_users_login_id"`
	Email               string     `json:"email"                 gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	AddressID           string     `json:"address_id"            gorm:"type:varchar(32);not null;uniqueIndex:ux_users_address_id"`
	PasswordHash        string     `json:"-"                     gorm:"type:varchar(255);not null"`
	Nickname            string     `json:"nickname"              gorm:"type:varchar(64);not null"`
	ProfileImageURL     string     `json:"profile_image_url"     gorm:"type:varchar(512)"`
	HeaderImageURL      string     `json:"header_image_url"      gorm:"type:varchar(512)"`
	TodayMessage        string     `json:"today_message"         gorm:"type:varchar(512)"`
	AIConsultingEnabled bool       `json:"ai_consulting_enabled" gorm:"not null"`
	Role                Role       `json:"role"                  gorm:"type:varchar(16);not null;check:role IN ('USER','ADMIN')"`
	Status              UserStatus `json:"status"                gorm:"type:varchar(16);not null;check:status IN ('ACTIVE','BANNED')"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Box is a user's public inbox, addressed by an immutable URL key.
//
// Fields:
//   - OwnerID: the owning user (unique, one box per user).
//   - URLKey: public token used in share links; globally unique.
//   - AllowAnonymous: when false only logged-in users may write.
//   - AIMode: enables AI-generated replies for the owner.
type Box struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	OwnerID        string    `json:"owner_id"        gorm:"type:char(36);not null;uniqueIndex:ux_boxes_owner"`
	URLKey         string    `json:"url_key"         gorm:"type:varchar(32);not null;uniqueIndex:ux_boxes_url_key"`
	Title          string    `json:"title"           gorm:"type:varchar(255);not null"`
	AllowAnonymous bool      `json:"allow_anonymous" gorm:"not null"`
	AIMode         bool      `json:"ai_mode"         gorm:"not null"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Owner User `json:"-" gorm:"foreignKey:OwnerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Box.
func (Box) TableName() string { return "boxes" }

// Message is a single entry left in a Box, together with its optional reply.
//
// Invariants maintained by the transition methods in message.go:
//   - HasAnyAnswer == (ReplyContent != nil)
//   - AuthorType == AuthorOwner iff AuthorUserID equals the box owner
//
// AuthorUserID is a weak reference: it is kept for logged-in writers even
// when they are classified ANONYMOUS relative to the box.
type Message struct {
	ID              string           `json:"id"                          gorm:"type:char(36);primaryKey"`
	BoxID           string           `json:"box_id"                      gorm:"type:char(36);not null;index:idx_box_msgs,priority:1"`
	Content         string           `json:"content"                     gorm:"type:text;not null"`
	AuthorType      AuthorType       `json:"author_type"                 gorm:"type:varchar(16);not null;check:author_type IN ('OWNER','ANONYMOUS')"`
	AuthorUserID    *string          `json:"author_user_id,omitempty"    gorm:"type:char(36);index"`
	Hidden          bool             `json:"hidden"                      gorm:"not null"`
	SystemMessage   bool             `json:"system_message"              gorm:"not null"`
	PrivateMessage  bool             `json:"private_message"             gorm:"not null"`
	HasAnyAnswer    bool             `json:"has_any_answer"              gorm:"not null"`
	ReplyContent    *string          `json:"reply_content,omitempty"     gorm:"type:text"`
	ReplyAuthorType *ReplyAuthorType `json:"reply_author_type,omitempty" gorm:"type:varchar(16)"`
	ReplyCreatedAt  *time.Time       `json:"reply_created_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"                  gorm:"index:idx_box_msgs,priority:2"`
	UpdatedAt       time.Time        `json:"updated_at"`

	Box        Box   `json:"-" gorm:"foreignKey:BoxID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	AuthorUser *User `json:"-" gorm:"foreignKey:AuthorUserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// BlacklistEntry records that BlockedUserID may no longer write into BoxID.
// The (box, user) pair is unique.
type BlacklistEntry struct {
	ID            string    `json:"id"              gorm:"type:char(36);primaryKey"`
	BoxID         string    `json:"box_id"          gorm:"type:char(36);not null;uniqueIndex:ux_blacklist_box_user,priority:1"`
	BlockedUserID string    `json:"blocked_user_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_blacklist_box_user,priority:2"`
	CreatedAt     time.Time `json:"created_at"`

	Box         Box  `json:"-" gorm:"foreignKey:BoxID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	BlockedUser User `json:"-" gorm:"foreignKey:BlockedUserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for BlacklistEntry.
func (BlacklistEntry) TableName() string { return "blacklist" }

// Notification is one alert in a user's pull-based feed.
type Notification struct {
	ID           string           `json:"id"                   gorm:"type:char(36);primaryKey"`
	TargetUserID string           `json:"target_user_id"       gorm:"type:char(36);not null;index:idx_user_notifications,priority:1"`
	Type         NotificationType `json:"type"                 gorm:"type:varchar(32);not null"`
	AlertMessage string           `json:"alert_message"        gorm:"type:varchar(512);not null"`
	MessageID    *string          `json:"message_id,omitempty" gorm:"type:char(36);index"`
	LinkURL      string           `json:"link_url"             gorm:"type:varchar(512)"`
	Read         bool             `json:"read"                 gorm:"column:is_read;not null"`
	CreatedAt    time.Time        `json:"created_at"           gorm:"index:idx_user_notifications,priority:2"`
	ReadAt       *time.Time       `json:"read_at,omitempty"`

	TargetUser User     `json:"-" gorm:"foreignKey:TargetUserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Message    *Message `json:"-" gorm:"foreignKey:MessageID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return "notifications" }
