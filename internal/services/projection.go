package services

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/hoshibaby/spbox-back/internal/domain"
)

const (
	// MaxContentRunes bounds message bodies and replies.
	MaxContentRunes = 1000
	// MaxTodayMessageRunes bounds the profile "today" line; longer input is clipped.
	MaxTodayMessageRunes = 120

	excerptRunes    = 20
	defaultPageSize = 10
	maxPageSize     = 100
)

// Labels is the complete set of user-facing strings the engine emits for one
// language. Every language must fill every field.
type Labels struct {
	Anonymous     string // author label for ANONYMOUS messages
	AccountHolder string // author label when no author reference exists
	OwnerPosted   string // COMMENT alert when the owner writes in their own box
	NewMessage    string // COMMENT alert for any other writer
	OwnerReplied  string // OWNER_REPLY alert to the author
	AIReplied     string // AI_REPLY alert to the author
}

var (
	labelTags = []language.Tag{language.English, language.Korean}
	labelSets = []Labels{
		{
			Anonymous:     "anonymous",
			AccountHolder: "account holder",
			OwnerPosted:   "The box owner left a message.",
			NewMessage:    "A new message arrived!",
			OwnerReplied:  "A reply was posted to your message",
			AIReplied:     "An AI reply was posted to your message",
		},
		{
			Anonymous:     "익명",
			AccountHolder: "계정주",
			OwnerPosted:   "박스 주인이 메시지를 남겼어요.",
			NewMessage:    "새로운 메시지가 도착했어요!",
			OwnerReplied:  "답글 작성한 메세지에 답글이 달렸어요",
			AIReplied:     "작성한 메세지에 AI 답글이 달렸어요",
		},
	}
	labelMatcher = language.NewMatcher(labelTags)
)

// LabelsFor returns the label set best matching tag. Unsupported languages
// (and language.Und) resolve to English.
func LabelsFor(tag language.Tag) Labels {
	_, idx, conf := labelMatcher.Match(tag)
	if conf == language.No {
		return labelSets[0]
	}
	return labelSets[idx]
}

// ParseLocale parses a BCP 47 string into a tag, falling back to English.
func ParseLocale(s string) language.Tag {
	if strings.TrimSpace(s) == "" {
		return language.English
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.English
	}
	return tag
}

// normalizeText trims and NFC-normalizes user text, then checks it against
// maxRunes. It returns emptyErr for blank input and longErr when too long.
func normalizeText(s string, maxRunes int, emptyErr, longErr error) (string, error) {
	s = norm.NFC.String(strings.TrimSpace(s))
	if s == "" {
		return "", emptyErr
	}
	if maxRunes > 0 && utf8.RuneCountInString(s) > maxRunes {
		return "", longErr
	}
	return s, nil
}

func clipRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func excerpt(s string) string {
	if utf8.RuneCountInString(s) <= excerptRunes {
		return s
	}
	return string([]rune(s)[:excerptRunes]) + "..."
}

// normalizePaging clamps a 0-based page index and a page size.
func normalizePaging(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func totalPages(total int64, size int) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// MessageSummary is the list projection of a message.
type MessageSummary struct {
	ID           string            `json:"id"`
	ShortContent string            `json:"short_content"`
	FromOwner    bool              `json:"from_owner"`
	HasReply     bool              `json:"has_reply"`
	Hidden       bool              `json:"hidden"`
	CreatedAt    time.Time         `json:"created_at"`
	AuthorType   domain.AuthorType `json:"author_type"`
	AuthorLabel  string            `json:"author_label"`
}

// MessagePage is one page of summaries plus the paging envelope.
type MessagePage struct {
	Page           int              `json:"page"`
	Size           int              `json:"size"`
	TotalPages     int              `json:"total_pages"`
	TotalElements  int64            `json:"total_elements"`
	AllowAnonymous bool             `json:"allow_anonymous"`
	Box            *BoxHeader       `json:"box,omitempty"`
	Content        []MessageSummary `json:"content"`
}

// MessageDetail is the full view of one message, shown to its box owner or
// its author.
type MessageDetail struct {
	ID              string                  `json:"id"`
	Content         string                  `json:"content"`
	FromOwner       bool                    `json:"from_owner"`
	Hidden          bool                    `json:"hidden"`
	PrivateMessage  bool                    `json:"private_message"`
	CreatedAt       time.Time               `json:"created_at"`
	ReplyContent    *string                 `json:"reply_content"`
	ReplyCreatedAt  *time.Time              `json:"reply_created_at"`
	ReplyAuthorType *domain.ReplyAuthorType `json:"reply_author_type"`
	HasAnyAnswer    bool                    `json:"has_any_answer"`
	AuthorUserID    *string                 `json:"author_user_id"`
	AuthorType      domain.AuthorType       `json:"author_type"`
	BoxOwnerID      string                  `json:"box_owner_id"`
}

// BoxHeader is the public card shown on top of a box.
type BoxHeader struct {
	BoxID           string `json:"box_id"`
	Title           string `json:"title"`
	URLKey          string `json:"url_key"`
	OwnerID         string `json:"owner_id"`
	OwnerNickname   string `json:"owner_nickname"`
	AddressID       string `json:"address_id"`
	ProfileImageURL string `json:"profile_image_url"`
	HeaderImageURL  string `json:"header_image_url"`
	TodayMessage    string `json:"today_message"`
	TotalCount      int64  `json:"total_count"`
	VisibleCount    int64  `json:"visible_count"`
	ReplyCount      int64  `json:"reply_count"`
	AllowAnonymous  bool   `json:"allow_anonymous"`
	AIMode          bool   `json:"ai_mode"`
}

// MyBox is the owner's full view of their box.
type MyBox struct {
	Box      BoxHeader        `json:"box"`
	Messages []MessageSummary `json:"messages"`
}

// BlockedUser is one blacklist entry as shown to the box owner.
type BlockedUser struct {
	EntryID   string    `json:"id"`
	UserID    string    `json:"blocked_user_id"`
	LoginID   string    `json:"blocked_login_id"`
	Nickname  string    `json:"blocked_nickname"`
	Email     string    `json:"blocked_email"`
	CreatedAt time.Time `json:"created_at"`
}

func authorLabel(m domain.Message, l Labels) string {
	if m.AuthorType == domain.AuthorAnonymous {
		return l.Anonymous
	}
	if m.AuthorUser != nil && m.AuthorUser.Nickname != "" {
		return m.AuthorUser.Nickname
	}
	return l.AccountHolder
}

func summarize(m domain.Message, l Labels) MessageSummary {
	return MessageSummary{
		ID:           m.ID,
		ShortContent: excerpt(m.Content),
		FromOwner:    m.FromOwner(),
		HasReply:     m.HasReply(),
		Hidden:       m.Hidden,
		CreatedAt:    m.CreatedAt,
		AuthorType:   m.AuthorType,
		AuthorLabel:  authorLabel(m, l),
	}
}

func summarizeAll(ms []domain.Message, l Labels) []MessageSummary {
	out := make([]MessageSummary, 0, len(ms))
	for _, m := range ms {
		out = append(out, summarize(m, l))
	}
	return out
}

func detailOf(m domain.Message) MessageDetail {
	return MessageDetail{
		ID:              m.ID,
		Content:         m.Content,
		FromOwner:       m.FromOwner(),
		Hidden:          m.Hidden,
		PrivateMessage:  m.PrivateMessage,
		CreatedAt:       m.CreatedAt,
		ReplyContent:    m.ReplyContent,
		ReplyCreatedAt:  m.ReplyCreatedAt,
		ReplyAuthorType: m.ReplyAuthorType,
		HasAnyAnswer:    m.HasAnyAnswer,
		AuthorUserID:    m.AuthorUserID,
		AuthorType:      m.AuthorType,
		BoxOwnerID:      m.Box.OwnerID,
	}
}

func messageLink(id string) string { return "/me/messages/" + id }
