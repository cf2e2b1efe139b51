package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		chatMessagesTotal,
		chatRuleMatchesTotal,
		uploadFilesRejectedTotal,
		uploadsCompletedTotal,
		contactSubmissionsTotal,
	)
}

var (
	chatMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Chat transcript entries appended, by author.",
		},
		[]string{"author"}, // 'user', 'assistant'
	)

	chatRuleMatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_rule_matches_total",
			Help: "Canned-response rule hits, by rule name.",
		},
		[]string{"rule"},
	)

	uploadFilesRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "upload_files_rejected_total",
			Help: "Staged files rejected by type/size validation.",
		},
	)

	uploadsCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "uploads_completed_total",
			Help: "Simulated upload batches that ran to completion.",
		},
	)

	contactSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Contact form submissions, by outcome.",
		},
		[]string{"outcome"}, // 'sent', 'fallback'
	)
)

func IncChatMessage(author string) {
	chatMessagesTotal.WithLabelValues(author).Inc()
}

func IncChatRuleMatch(rule string) {
	chatRuleMatchesTotal.WithLabelValues(rule).Inc()
}

func IncFileRejected() {
	uploadFilesRejectedTotal.Inc()
}

func IncUploadCompleted() {
	uploadsCompletedTotal.Inc()
}

func IncContactSubmission(outcome string) {
	contactSubmissionsTotal.WithLabelValues(outcome).Inc()
}
