package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyReply is returned when the generator answers with blank text.
var ErrEmptyReply = errors.New("ai: empty reply")

// DefaultTimeout bounds a generator call when Replier.Timeout is unset.
const DefaultTimeout = 10 * time.Second

const promptTemplate = `You are "Lion Prince", a warm counselling assistant.
Rules:
- One sentence of empathy
- One sentence summarising the situation
- Suggest 2-3 options without pressure
- 3-6 sentences in total, short and gentle

[User message]
%s
`

// BuildPrompt wraps a message body in the counselor instructions.
func BuildPrompt(content string) string {
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(content))
}

// Replier turns message content into reply text through a Client.
type Replier struct {
	Client  Client
	Timeout time.Duration
}

// NewReplier returns a Replier bounded by timeout (DefaultTimeout when <= 0).
func NewReplier(c Client, timeout time.Duration) *Replier {
	return &Replier{Client: c, Timeout: timeout}
}

type result struct {
	text string
	err  error
}

// Reply builds the prompt for content, calls the client, and returns the
// trimmed reply. The call is abandoned once the timeout elapses even if the
// client ignores its context.
func (r *Replier) Reply(ctx context.Context, content string) (string, error) {
	if r == nil || r.Client == nil {
		return "", errors.New("ai: no client configured")
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		text, err := r.Client.GenerateReply(ctx, BuildPrompt(content))
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("ai: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("ai: %w", res.err)
		}
		text := strings.TrimSpace(res.text)
		if text == "" {
			return "", ErrEmptyReply
		}
		return text, nil
	}
}
