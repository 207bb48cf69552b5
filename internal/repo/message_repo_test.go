package repo

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/hoshibaby/spbox-back/internal/domain"
)

func seedListingFixture(t *testing.T) (ctx context.Context, base time.Time) {
	t.Helper()
	return context.Background(), time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestListMessagesPage_Filters_AndOrder(t *testing.T) {
	db := newRepoDB(t)
	ctx, base := seedListingFixture(t)
	seedUser(t, db, "owner", "Owner")
	seedUser(t, db, "writer", "Writer")
	seedBox(t, db, "b1", "owner", "key1")

	seedMessage(t, db, "m1", "b1", base, withAuthor("writer"))
	seedMessage(t, db, "m2", "b1", base.Add(1*time.Minute), hidden())
	seedMessage(t, db, "m3", "b1", base.Add(2*time.Minute), private())
	seedMessage(t, db, "m4", "b1", base.Add(3*time.Minute), system())
	seedMessage(t, db, "m5", "b1", base.Add(4*time.Minute), replied("ok"))

	all, err := ListMessagesPage(ctx, db, MessageFilter{BoxID: "b1"}, 0, 10)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if got := ids(all); !equal(got, []string{"m5", "m4", "m3", "m2", "m1"}) {
		t.Fatalf("owner listing order = %v", got)
	}
	if all[4].AuthorUser == nil || all[4].AuthorUser.Nickname != "Writer" {
		t.Fatalf("expected author preloaded on m1, got %+v", all[4].AuthorUser)
	}

	pub, err := ListMessagesPage(ctx, db, MessageFilter{BoxID: "b1", PublicOnly: true}, 0, 10)
	if err != nil {
		t.Fatalf("list public: %v", err)
	}
	if got := ids(pub); !equal(got, []string{"m5", "m1"}) {
		t.Fatalf("public listing = %v", got)
	}

	answered, err := ListMessagesPage(ctx, db, MessageFilter{BoxID: "b1", AnsweredOnly: true}, 0, 10)
	if err != nil {
		t.Fatalf("list answered: %v", err)
	}
	if got := ids(answered); !equal(got, []string{"m5"}) {
		t.Fatalf("answered listing = %v", got)
	}

	n, err := CountMessages(ctx, db, MessageFilter{BoxID: "b1", PublicOnly: true})
	if err != nil || n != 2 {
		t.Fatalf("CountMessages public = %d, %v", n, err)
	}

	page, err := ListMessagesPage(ctx, db, MessageFilter{BoxID: "b1"}, 2, 2)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if got := ids(page); !equal(got, []string{"m3", "m2"}) {
		t.Fatalf("offset page = %v", got)
	}
}

func TestGetMessage_PreloadsBoxOwner(t *testing.T) {
	db := newRepoDB(t)
	ctx, base := seedListingFixture(t)
	seedUser(t, db, "owner", "Owner")
	seedBox(t, db, "b1", "owner", "key1")
	seedMessage(t, db, "m1", "b1", base)

	m, err := GetMessage(ctx, db, "m1")
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if m.Box.ID != "b1" || m.Box.Owner.ID != "owner" {
		t.Fatalf("box/owner not preloaded: %+v", m.Box)
	}
	if m.AuthorUser != nil {
		t.Fatalf("expected no author, got %+v", m.AuthorUser)
	}
	if _, err := GetMessage(ctx, db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveMessageState_RoundTrip(t *testing.T) {
	db := newRepoDB(t)
	ctx, base := seedListingFixture(t)
	seedUser(t, db, "owner", "Owner")
	seedBox(t, db, "b1", "owner", "key1")
	orig := seedMessage(t, db, "m1", "b1", base)

	next := orig.WithReply("thanks", domain.ReplyByAI, base.Add(time.Hour)).AsHidden().WithContent("edited")
	if err := SaveMessageState(ctx, db, next); err != nil {
		t.Fatalf("SaveMessageState: %v", err)
	}
	got, _ := GetMessage(ctx, db, "m1")
	if got.Content != "edited" || !got.Hidden || !got.HasAnyAnswer {
		t.Fatalf("state not written: %+v", got)
	}
	if got.ReplyContent == nil || *got.ReplyContent != "thanks" || got.ReplyAuthorType == nil || *got.ReplyAuthorType != domain.ReplyByAI {
		t.Fatalf("reply not written: %+v", got)
	}

	if err := SaveMessageState(ctx, db, got.WithoutReply()); err != nil {
		t.Fatalf("SaveMessageState clear: %v", err)
	}
	cleared, _ := GetMessage(ctx, db, "m1")
	if cleared.ReplyContent != nil || cleared.ReplyCreatedAt != nil || cleared.ReplyAuthorType != nil || cleared.HasAnyAnswer {
		t.Fatalf("reply not cleared: %+v", cleared)
	}

	if err := SaveMessageState(ctx, db, domain.Message{ID: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMessageIDsForAccount_And_Delete(t *testing.T) {
	db := newRepoDB(t)
	ctx, base := seedListingFixture(t)
	seedUser(t, db, "alice", "Alice")
	seedUser(t, db, "bob", "Bob")
	seedBox(t, db, "ba", "alice", "keya")
	seedBox(t, db, "bb", "bob", "keyb")

	seedMessage(t, db, "a1", "ba", base)                             // in alice's box
	seedMessage(t, db, "a2", "ba", base, withAuthor("alice"))        // alice in her own box
	seedMessage(t, db, "b1", "bb", base, withAuthor("alice"))        // alice in bob's box
	seedMessage(t, db, "b2", "bb", base.Add(time.Minute), withAuthor("bob"))

	got, err := MessageIDsForAccount(ctx, db, "ba", "alice")
	if err != nil {
		t.Fatalf("MessageIDsForAccount: %v", err)
	}
	sort.Strings(got)
	if !equal(got, []string{"a1", "a2", "b1"}) {
		t.Fatalf("ids = %v", got)
	}

	authoredOnly, _ := MessageIDsForAccount(ctx, db, "", "bob")
	if !equal(authoredOnly, []string{"b2"}) {
		t.Fatalf("authored-only ids = %v", authoredOnly)
	}

	if err := DeleteMessages(ctx, db, got); err != nil {
		t.Fatalf("DeleteMessages: %v", err)
	}
	if err := DeleteMessages(ctx, db, nil); err != nil {
		t.Fatalf("DeleteMessages(nil): %v", err)
	}
	left, _ := ListBoxMessages(ctx, db, "bb")
	if !equal(ids(left), []string{"b2"}) {
		t.Fatalf("remaining in bob's box = %v", ids(left))
	}
	if err := DeleteMessage(ctx, db, "b2"); err != nil {
		t.Fatalf("DeleteMessage: %v", err)
	}
	if _, err := GetMessage(ctx, db, "b2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected b2 gone, got %v", err)
	}
}

func ids(ms []domain.Message) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
