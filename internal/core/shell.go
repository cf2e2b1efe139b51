package core

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"verbitskysystems.com/website/internal/metrics"
)

// ShellOptions carries the tunables the controllers need; zero values fall
// back to production settings.
type ShellOptions struct {
	Logger        zerolog.Logger
	RelayURL      string
	Operator      string
	RelayClient   *http.Client
	ChatDelayMin  time.Duration
	ChatDelayMax  time.Duration
	UploadTick    time.Duration
	UploadStagger time.Duration
}

// Shell is the root orchestrator: it constructs the singleton controllers
// once at startup, owns the event bus they signal over, and tears everything
// down on Close. No controller touches another controller's state directly.
type Shell struct {
	Bus       *Bus
	Navigator *Navigator
	Chat      *ChatService
	Uploads   *UploadService
	Contact   *ContactService

	log zerolog.Logger
}

func NewShell(opts ShellOptions) *Shell {
	bus := NewBus()
	s := &Shell{
		Bus:       bus,
		Navigator: NewNavigator(),
		Chat:      NewChatService(NewResponder(), bus, opts.Logger, opts.ChatDelayMin, opts.ChatDelayMax),
		Uploads:   NewUploadService(bus, opts.Logger, opts.UploadTick, opts.UploadStagger),
		Contact:   NewContactService(opts.RelayURL, opts.Operator, opts.RelayClient, bus, opts.Logger),
		log:       opts.Logger,
	}
	s.wireMetrics()
	return s
}

// wireMetrics subscribes the counters to bus traffic instead of letting
// controllers call the metrics package themselves.
func (s *Shell) wireMetrics() {
	s.Bus.Subscribe(TopicChatMessage, func(e Event) {
		if msg, ok := e.Payload.(Message); ok {
			metrics.IncChatMessage(msg.Author)
		}
	})
	s.Bus.Subscribe(TopicChatRuleMatched, func(e Event) {
		if rule, ok := e.Payload.(string); ok {
			metrics.IncChatRuleMatch(rule)
		}
	})
	s.Bus.Subscribe(TopicFileRejected, func(Event) {
		metrics.IncFileRejected()
	})
	s.Bus.Subscribe(TopicUploadCompleted, func(Event) {
		metrics.IncUploadCompleted()
	})
	s.Bus.Subscribe(TopicContactSubmitted, func(e Event) {
		if outcome, ok := e.Payload.(string); ok {
			metrics.IncContactSubmission(outcome)
		}
	})
}

// Controller looks a singleton controller up by name.
func (s *Shell) Controller(name string) any {
	switch name {
	case "router":
		return s.Navigator
	case "chat":
		return s.Chat
	case "documents":
		return s.Uploads
	case "contact":
		return s.Contact
	default:
		return nil
	}
}

// Close cancels every pending chat and upload timer so teardown never
// leaves a reply or progress callback running.
func (s *Shell) Close() {
	s.Chat.Close()
	s.Uploads.Close()
	s.log.Debug().Msg("shell closed")
}
