package domain

import "time"

// The methods below are the only sanctioned way to change a Message. Each
// returns a new value and leaves the receiver untouched; the repo layer
// writes the resulting state back.

// HasReply reports whether a reply is currently attached.
func (m Message) HasReply() bool { return m.ReplyContent != nil }

// FromOwner reports whether the box owner wrote the message.
func (m Message) FromOwner() bool { return m.AuthorType == AuthorOwner }

// AuthoredBy reports whether userID is the recorded author. Messages without
// an author reference are never authored by anyone.
func (m Message) AuthoredBy(userID string) bool {
	return m.AuthorUserID != nil && userID != "" && *m.AuthorUserID == userID
}

// WithReply attaches a reply produced by the given author at time at.
func (m Message) WithReply(text string, by ReplyAuthorType, at time.Time) Message {
	content := text
	author := by
	ts := at
	m.ReplyContent = &content
	m.ReplyAuthorType = &author
	m.ReplyCreatedAt = &ts
	m.HasAnyAnswer = true
	return m
}

// WithoutReply clears every reply field.
func (m Message) WithoutReply() Message {
	m.ReplyContent = nil
	m.ReplyAuthorType = nil
	m.ReplyCreatedAt = nil
	m.HasAnyAnswer = false
	return m
}

// AsHidden marks the message hidden. Applying it twice is a no-op.
func (m Message) AsHidden() Message {
	m.Hidden = true
	return m
}

// WithContent replaces the message body.
func (m Message) WithContent(text string) Message {
	m.Content = text
	return m
}

// MarkedRead returns the notification in read state. An already-read
// notification keeps its original ReadAt.
func (n Notification) MarkedRead(at time.Time) Notification {
	if n.Read {
		return n
	}
	ts := at
	n.Read = true
	n.ReadAt = &ts
	return n
}
