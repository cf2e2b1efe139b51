package core

import "sync"

// Bus topics. Controllers never mutate each other's state directly; anything
// a component wants the rest of the shell to know about goes over the bus.
const (
	TopicChatMessage      = "chat.message"
	TopicChatRuleMatched  = "chat.rule_matched"
	TopicFileRejected     = "documents.file_rejected"
	TopicUploadCompleted  = "documents.upload_completed"
	TopicContactSubmitted = "contact.submitted"
)

type Event struct {
	Topic   string
	Payload any
}

type EventHandler func(Event)

// Bus is the shell's in-process pub/sub. Dispatch is synchronous; handlers
// must not block.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]EventHandler
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string][]EventHandler)}
}

func (b *Bus) Subscribe(topic string, h EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], h)
}

func (b *Bus) Publish(topic string, payload any) {
	if b == nil {
		return
	}
	b.mu.RLock()
	handlers := b.subs[topic]
	b.mu.RUnlock()
	for _, h := range handlers {
		h(Event{Topic: topic, Payload: payload})
	}
}
