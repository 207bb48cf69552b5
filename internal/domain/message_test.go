package domain

import (
	"testing"
	"time"
)

func TestMessage_WithReply_DoesNotMutateReceiver(t *testing.T) {
	orig := Message{ID: "m1", Content: "hello"}
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	got := orig.WithReply("thanks", ReplyByOwner, at)

	if orig.HasReply() || orig.HasAnyAnswer {
		t.Fatalf("receiver mutated: %+v", orig)
	}
	if !got.HasReply() || !got.HasAnyAnswer {
		t.Fatalf("expected reply state, got %+v", got)
	}
	if *got.ReplyContent != "thanks" || *got.ReplyAuthorType != ReplyByOwner || !got.ReplyCreatedAt.Equal(at) {
		t.Fatalf("unexpected reply fields: %+v", got)
	}
}

func TestMessage_WithoutReply_KeepsAnswerInvariant(t *testing.T) {
	m := Message{ID: "m1"}.WithReply("r", ReplyByAI, time.Now())
	cleared := m.WithoutReply()

	if cleared.ReplyContent != nil || cleared.ReplyAuthorType != nil || cleared.ReplyCreatedAt != nil {
		t.Fatalf("expected reply fields cleared, got %+v", cleared)
	}
	if cleared.HasAnyAnswer != cleared.HasReply() {
		t.Fatalf("HasAnyAnswer must equal HasReply")
	}
	if !m.HasReply() {
		t.Fatalf("original should still carry its reply")
	}
}

func TestMessage_AsHidden_Idempotent(t *testing.T) {
	m := Message{ID: "m1"}
	once := m.AsHidden()
	twice := once.AsHidden()
	if m.Hidden || !once.Hidden || !twice.Hidden {
		t.Fatalf("unexpected hidden states: %v %v %v", m.Hidden, once.Hidden, twice.Hidden)
	}
}

func TestMessage_AuthoredBy_And_FromOwner(t *testing.T) {
	uid := "u1"
	m := Message{AuthorType: AuthorOwner, AuthorUserID: &uid}
	if !m.AuthoredBy("u1") || m.AuthoredBy("u2") || m.AuthoredBy("") {
		t.Fatalf("AuthoredBy mismatch")
	}
	if !m.FromOwner() {
		t.Fatalf("expected FromOwner")
	}
	anon := Message{AuthorType: AuthorAnonymous}
	if anon.AuthoredBy("u1") || anon.FromOwner() {
		t.Fatalf("anonymous message must not be authored by anyone")
	}
}

func TestMessage_WithContent(t *testing.T) {
	m := Message{Content: "a"}
	if got := m.WithContent("b"); got.Content != "b" || m.Content != "a" {
		t.Fatalf("WithContent: got %q, receiver %q", got.Content, m.Content)
	}
}

func TestNotification_MarkedRead_KeepsFirstReadAt(t *testing.T) {
	t1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	n := Notification{ID: "n1"}.MarkedRead(t1)
	if !n.Read || n.ReadAt == nil || !n.ReadAt.Equal(t1) {
		t.Fatalf("unexpected read state: %+v", n)
	}
	again := n.MarkedRead(t2)
	if !again.ReadAt.Equal(t1) {
		t.Fatalf("expected ReadAt to stay %v, got %v", t1, again.ReadAt)
	}
}
