package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// messagesCreated counts persisted messages by author classification.
	messagesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spbox_messages_created_total",
			Help: "Messages written into boxes.",
		},
		[]string{"author_type"},
	)

	// aiReplies counts AI reply attempts. path is "auto" (on create) or
	// "explicit" (owner request); outcome is "ok" or "error".
	aiReplies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spbox_ai_replies_total",
			Help: "AI reply attempts by trigger path and outcome.",
		},
		[]string{"path", "outcome"},
	)

	// notificationsSent counts stored notifications by type.
	notificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spbox_notifications_total",
			Help: "Notifications appended to user feeds.",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(messagesCreated, aiReplies, notificationsSent)
}

func aiOutcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
