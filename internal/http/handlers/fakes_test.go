package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hoshibaby/spbox-back/internal/auth"
	"github.com/hoshibaby/spbox-back/internal/domain"
	"github.com/hoshibaby/spbox-back/internal/http/middleware"
	"github.com/hoshibaby/spbox-back/internal/services"
)

// ---- fakes ----

type fakeMessages struct {
	err error

	createID    string
	createCalls int
	lastCreate  services.CreateInput

	page      *services.MessagePage
	listCalls int
	detail    *services.MessageDetail
	myBox     *services.MyBox
	msg       *domain.Message

	lastID, lastLogin, lastText string
}

func (f *fakeMessages) Create(_ context.Context, in services.CreateInput) (string, error) {
	f.createCalls++
	f.lastCreate = in
	return f.createID, f.err
}

func (f *fakeMessages) list(login string) (*services.MessagePage, error) {
	f.listCalls++
	f.lastLogin = login
	return f.page, f.err
}

func (f *fakeMessages) ListOwnerMessages(_ context.Context, login string, _, _ int) (*services.MessagePage, error) {
	return f.list(login)
}

func (f *fakeMessages) ListAnsweredMessages(_ context.Context, login string, _, _ int) (*services.MessagePage, error) {
	return f.list(login)
}

func (f *fakeMessages) ListPublicMessages(_ context.Context, key string, _, _ int) (*services.MessagePage, error) {
	return f.list(key)
}

func (f *fakeMessages) GetMyBox(_ context.Context, login string) (*services.MyBox, error) {
	f.lastLogin = login
	return f.myBox, f.err
}

func (f *fakeMessages) GetMessageDetail(_ context.Context, id, login string) (*services.MessageDetail, error) {
	f.lastID, f.lastLogin = id, login
	return f.detail, f.err
}

func (f *fakeMessages) mutate(id, text, login string) (*domain.Message, error) {
	f.lastID, f.lastText, f.lastLogin = id, text, login
	return f.msg, f.err
}

func (f *fakeMessages) Reply(_ context.Context, id, text, login string) (*domain.Message, error) {
	return f.mutate(id, text, login)
}

func (f *fakeMessages) ClearReply(_ context.Context, id, login string) (*domain.Message, error) {
	return f.mutate(id, "", login)
}

func (f *fakeMessages) GenerateAIReply(_ context.Context, id, login string) (*domain.Message, error) {
	return f.mutate(id, "", login)
}

func (f *fakeMessages) Hide(_ context.Context, id, login string) error {
	_, err := f.mutate(id, "", login)
	return err
}

func (f *fakeMessages) Blacklist(_ context.Context, id, login string) error {
	_, err := f.mutate(id, "", login)
	return err
}

func (f *fakeMessages) Update(_ context.Context, id, text, login string) (*domain.Message, error) {
	return f.mutate(id, text, login)
}

func (f *fakeMessages) Delete(_ context.Context, id, login string) error {
	_, err := f.mutate(id, "", login)
	return err
}

type fakeBoxes struct {
	err    error
	box    *domain.Box
	header *services.BoxHeader
	count  int64
	latest *time.Time
	last   string
	flag   *bool
}

func (f *fakeBoxes) FindByOwner(_ context.Context, id string) (*domain.Box, error) {
	f.last = id
	return f.box, f.err
}

func (f *fakeBoxes) HeaderByURLKey(_ context.Context, key string) (*services.BoxHeader, error) {
	f.last = key
	return f.header, f.err
}

func (f *fakeBoxes) HeaderByAddressID(_ context.Context, id string) (*services.BoxHeader, error) {
	f.last = id
	return f.header, f.err
}

func (f *fakeBoxes) UpdateAllowAnonymous(_ context.Context, login string, v bool) (*domain.Box, error) {
	f.last, f.flag = login, &v
	return f.box, f.err
}

func (f *fakeBoxes) UpdateAIMode(_ context.Context, login string, v bool) (*domain.Box, error) {
	f.last, f.flag = login, &v
	return f.box, f.err
}

func (f *fakeBoxes) Stats(context.Context, string) (int64, *time.Time, error) {
	return f.count, f.latest, f.err
}

type fakeUsers struct {
	err      error
	user     *domain.User
	box      *domain.Box
	loginID  string
	tempPass string

	lastSignup  services.SignupInput
	lastProfile services.ProfileUpdate
	lastArgs    []string
}

func (f *fakeUsers) Signup(_ context.Context, in services.SignupInput) (*domain.User, *domain.Box, error) {
	f.lastSignup = in
	return f.user, f.box, f.err
}

func (f *fakeUsers) Login(_ context.Context, login, pw string) (*domain.User, *domain.Box, error) {
	f.lastArgs = []string{login, pw}
	return f.user, f.box, f.err
}

func (f *fakeUsers) FindByLoginID(_ context.Context, login string) (*domain.User, error) {
	f.lastArgs = []string{login}
	return f.user, f.err
}

func (f *fakeUsers) FindLoginIDByEmail(_ context.Context, email string) (string, error) {
	f.lastArgs = []string{email}
	return f.loginID, f.err
}

func (f *fakeUsers) ResetPassword(_ context.Context, login, email string) (string, error) {
	f.lastArgs = []string{login, email}
	return f.tempPass, f.err
}

func (f *fakeUsers) ChangePassword(_ context.Context, login, cur, next string) error {
	f.lastArgs = []string{login, cur, next}
	return f.err
}

func (f *fakeUsers) UpdateProfile(_ context.Context, login string, p services.ProfileUpdate) (*domain.User, error) {
	f.lastArgs = []string{login}
	f.lastProfile = p
	return f.user, f.err
}

func (f *fakeUsers) DeleteAccount(_ context.Context, login string) error {
	f.lastArgs = []string{login}
	return f.err
}

type fakeBlacklist struct {
	err   error
	users []services.BlockedUser
	last  []string
}

func (f *fakeBlacklist) List(_ context.Context, login string) ([]services.BlockedUser, error) {
	f.last = []string{login}
	return f.users, f.err
}

func (f *fakeBlacklist) Unblock(_ context.Context, login, userID string) error {
	f.last = []string{login, userID}
	return f.err
}

type fakeNotifications struct {
	err   error
	items []domain.Notification
	one   *domain.Notification
	count int64
	last  []string
}

func (f *fakeNotifications) List(_ context.Context, uid string) ([]domain.Notification, error) {
	f.last = []string{uid}
	return f.items, f.err
}

func (f *fakeNotifications) MarkAsRead(_ context.Context, uid, id string) (*domain.Notification, error) {
	f.last = []string{uid, id}
	return f.one, f.err
}

func (f *fakeNotifications) MarkAllAsRead(_ context.Context, uid string) (int64, error) {
	f.last = []string{uid}
	return f.count, f.err
}

func (f *fakeNotifications) UnreadCount(_ context.Context, uid string) (int64, error) {
	f.last = []string{uid}
	return f.count, f.err
}

type memIdem struct {
	rows map[string]string
}

func (m *memIdem) Lookup(_ context.Context, actor, box, key string, _ time.Time) (string, bool, error) {
	id, ok := m.rows[actor+"|"+box+"|"+key]
	return id, ok, nil
}

func (m *memIdem) Remember(_ context.Context, actor, box, key, id string, _ int, _ time.Duration) error {
	if m.rows == nil {
		m.rows = map[string]string{}
	}
	m.rows[actor+"|"+box+"|"+key] = id
	return nil
}

// ---- harness ----

type harness struct {
	msgs   *fakeMessages
	boxes  *fakeBoxes
	users  *fakeUsers
	bl     *fakeBlacklist
	notifs *fakeNotifications
	idem   *memIdem
	tokens *auth.Manager
	r      *gin.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hs := &harness{
		msgs:   &fakeMessages{},
		boxes:  &fakeBoxes{},
		users:  &fakeUsers{},
		bl:     &fakeBlacklist{},
		notifs: &fakeNotifications{},
		idem:   &memIdem{},
		tokens: auth.NewManager("test-secret", "spbox-test", time.Hour),
	}
	h := New(Deps{
		Messages:      hs.msgs,
		Boxes:         hs.boxes,
		Users:         hs.users,
		Blacklist:     hs.bl,
		Notifications: hs.notifs,
		Tokens:        hs.tokens,
		Idempotency:   hs.idem,
	})

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.OptionalAuth(hs.tokens))
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))

	r.POST("/auth/signup", h.Signup)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/find-id", h.FindID)
	r.POST("/auth/reset-password", h.ResetPassword)
	r.POST("/messages", h.CreateMessage)
	r.GET("/boxes/:urlKey", h.GetBox)
	r.GET("/boxes/:urlKey/messages", h.ListPublicMessages)
	r.POST("/boxes/:urlKey/messages", h.CreateMessage)
	r.GET("/addresses/:addressId", h.GetBoxByAddress)

	me := r.Group("/me", middleware.RequireAuth())
	me.GET("", h.GetMe)
	me.PATCH("", h.UpdateMe)
	me.DELETE("", h.DeleteMe)
	me.PUT("/password", h.ChangePassword)
	me.GET("/box", h.GetMyBox)
	me.PUT("/box/anonymous", h.SetAllowAnonymous)
	me.PUT("/box/ai-mode", h.SetAIMode)
	me.GET("/messages", h.ListMyMessages)
	me.GET("/messages/answered", h.ListAnsweredMessages)
	me.GET("/messages/:id", h.GetMessage)
	me.PUT("/messages/:id", h.UpdateMessage)
	me.DELETE("/messages/:id", h.DeleteMessage)
	me.PUT("/messages/:id/reply", h.ReplyMessage)
	me.DELETE("/messages/:id/reply", h.ClearReply)
	me.POST("/messages/:id/ai-reply", h.GenerateAIReply)
	me.PATCH("/messages/:id/hide", h.HideMessage)
	me.POST("/messages/:id/blacklist", h.BlacklistAuthor)
	me.GET("/blacklist", h.ListBlacklist)
	me.DELETE("/blacklist/:userId", h.Unblock)
	me.GET("/notifications", h.ListNotifications)
	me.GET("/notifications/unread-count", h.UnreadCount)
	me.PATCH("/notifications/read-all", h.MarkAllNotificationsRead)
	me.PATCH("/notifications/:id/read", h.MarkNotificationRead)

	hs.r = r
	return hs
}

// call performs a request. token may be empty; headers are key/value pairs.
func (hs *harness) call(t *testing.T, method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	hs.r.ServeHTTP(w, req)
	return w
}

func (hs *harness) token(t *testing.T, uid, login string) string {
	t.Helper()
	tok, err := hs.tokens.Issue(uid, login)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d; body=%s", w.Code, status, w.Body.String())
	}
	if code != "" {
		if got := decode[ErrorResponse](t, w); got.Code != code {
			t.Fatalf("code = %q, want %q", got.Code, code)
		}
	}
}
