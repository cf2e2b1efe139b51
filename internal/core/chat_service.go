package core

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ChatState string

const (
	StateIdle             ChatState = "idle"
	StateAwaitingResponse ChatState = "awaiting_response"
)

const (
	AuthorUser      = "user"
	AuthorAssistant = "assistant"
)

var (
	ErrSessionNotFound  = errors.New("chat session not found")
	ErrEmptyMessage     = errors.New("message text is empty")
	ErrAwaitingResponse = errors.New("a response is still pending")
)

type Message struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

const greetingScript = `Hello! I'm the Verbitsky Systems troubleshooting assistant. Describe the issue you're seeing on the plant floor - PLC communication, motor faults, safety resets, sensor readings - and I'll walk you through a diagnosis.`

// suggestedPrompts are the one-click starter questions shown next to the
// chat input.
var suggestedPrompts = []string{
	"Our PLC can't talk to the HMI",
	"Motor keeps overheating under load",
	"Safety system won't reset after an E-stop",
	"Sensor readings are drifting",
}

// ChatSession is one visitor conversation: an append-only message log plus
// the Idle/AwaitingResponse state machine. A new Send is rejected while a
// reply is pending, which is what keeps replies ordered.
type ChatSession struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	state    ChatState
	messages []Message
	pending  *time.Timer
	closed   bool
}

func (c *ChatSession) State() ChatState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Messages returns a copy of the transcript in insertion order.
func (c *ChatSession) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// MessageCount increments by exactly one per appended message.
func (c *ChatSession) MessageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func (c *ChatSession) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

// ChatService owns every chat session and the canned-response generator.
// Assistant replies are delivered after a randomized typing delay to emulate
// latency; the bounds are configurable so tests don't have to wait.
type ChatService struct {
	responder *Responder
	bus       *Bus
	log       zerolog.Logger
	delayMin  time.Duration
	delayMax  time.Duration

	mu       sync.Mutex
	sessions map[string]*ChatSession
}

func NewChatService(responder *Responder, bus *Bus, logger zerolog.Logger, delayMin, delayMax time.Duration) *ChatService {
	if delayMin <= 0 {
		delayMin = time.Second
	}
	if delayMax < delayMin {
		delayMax = delayMin
	}
	return &ChatService{
		responder: responder,
		bus:       bus,
		log:       logger,
		delayMin:  delayMin,
		delayMax:  delayMax,
		sessions:  make(map[string]*ChatSession),
	}
}

// CreateSession starts a conversation with the assistant greeting preloaded.
func (s *ChatService) CreateSession() *ChatSession {
	sess := &ChatSession{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		state:     StateIdle,
		messages: []Message{{
			ID:        uuid.NewString(),
			Author:    AuthorAssistant,
			Text:      greetingScript,
			CreatedAt: time.Now(),
		}},
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	s.log.Debug().Str("session", sess.ID).Msg("chat session created")
	return sess
}

func (s *ChatService) Session(id string) (*ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *ChatService) SuggestedPrompts() []string {
	out := make([]string, len(suggestedPrompts))
	copy(out, suggestedPrompts)
	return out
}

// Send appends the visitor message and schedules the assistant reply. It
// fails with ErrEmptyMessage for blank text and ErrAwaitingResponse while a
// reply is pending, so each accepted send produces exactly one assistant
// message, delivered in order.
func (s *ChatService) Send(sessionID, text string) (Message, error) {
	sess, err := s.Session(sessionID)
	if err != nil {
		return Message{}, err
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Message{}, ErrEmptyMessage
	}

	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return Message{}, ErrSessionNotFound
	}
	if sess.state == StateAwaitingResponse {
		sess.mu.Unlock()
		return Message{}, ErrAwaitingResponse
	}

	userMsg := Message{
		ID:        uuid.NewString(),
		Author:    AuthorUser,
		Text:      trimmed,
		CreatedAt: time.Now(),
	}
	sess.messages = append(sess.messages, userMsg)
	sess.state = StateAwaitingResponse
	sess.pending = time.AfterFunc(s.typingDelay(), func() {
		s.deliverReply(sess, trimmed)
	})
	sess.mu.Unlock()

	s.bus.Publish(TopicChatMessage, userMsg)
	if rule, ok := s.responder.MatchRule(trimmed); ok {
		s.bus.Publish(TopicChatRuleMatched, rule)
	}
	return userMsg, nil
}

func (s *ChatService) typingDelay() time.Duration {
	if s.delayMax == s.delayMin {
		return s.delayMin
	}
	return s.delayMin + time.Duration(rand.Int63n(int64(s.delayMax-s.delayMin)))
}

func (s *ChatService) deliverReply(sess *ChatSession, userText string) {
	reply := Message{
		ID:        uuid.NewString(),
		Author:    AuthorAssistant,
		Text:      s.responder.Respond(userText),
		CreatedAt: time.Now(),
	}

	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return
	}
	sess.messages = append(sess.messages, reply)
	sess.state = StateIdle
	sess.pending = nil
	sess.mu.Unlock()

	s.bus.Publish(TopicChatMessage, reply)
	s.log.Debug().Str("session", sess.ID).Msg("assistant reply delivered")
}

// CloseSession tears one conversation down, cancelling any pending reply.
func (s *ChatService) CloseSession(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.close()
	}
}

// Close cancels every pending reply timer. Part of shell teardown.
func (s *ChatService) Close() {
	s.mu.Lock()
	sessions := make([]*ChatSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessions = make(map[string]*ChatSession)
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.close()
	}
}
