package devnotes

import (
	"sync"

	"github.com/rs/zerolog"
)

// EventType identifies a client notification.
type EventType int

const (
	NotesUpdated EventType = iota
	TagsUpdated
	UsersUpdated
	SignedIn
	SignedOut
)

func (t EventType) String() string {
	switch t {
	case NotesUpdated:
		return "notes_updated"
	case TagsUpdated:
		return "tags_updated"
	case UsersUpdated:
		return "users_updated"
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers on the client loop.
type Event struct {
	Type EventType
}

// EventHandler receives events. It runs on the client loop and must not
// block; use the read accessors, not the loop, from inside a handler.
type EventHandler func(Event)

type subscriber struct {
	id      uint64
	handler EventHandler
}

type eventManager struct {
	mu          sync.RWMutex
	nextID      uint64
	subscribers map[EventType][]subscriber
	logger      zerolog.Logger
}

func newEventManager(logger zerolog.Logger) *eventManager {
	return &eventManager{
		subscribers: make(map[EventType][]subscriber),
		logger:      logger,
	}
}

func (em *eventManager) subscribe(eventType EventType, handler EventHandler) func() {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.nextID++
	id := em.nextID
	em.subscribers[eventType] = append(em.subscribers[eventType], subscriber{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() {
			em.mu.Lock()
			defer em.mu.Unlock()
			subs := em.subscribers[eventType]
			for i, s := range subs {
				if s.id == id {
					em.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
		})
	}
}

// publish calls every handler for event in subscription order. A panicking
// handler is logged and does not stop the others.
func (em *eventManager) publish(event Event) {
	em.mu.RLock()
	subs := make([]subscriber, len(em.subscribers[event.Type]))
	copy(subs, em.subscribers[event.Type])
	em.mu.RUnlock()

	for _, s := range subs {
		em.call(event, s.handler)
	}
}

func (em *eventManager) call(event Event, handler EventHandler) {
	defer func() {
		if r := recover(); r != nil {
			em.logger.Error().Str("event", event.Type.String()).Interface("panic", r).Msg("panic in event handler")
		}
	}()
	handler(event)
}
