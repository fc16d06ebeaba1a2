package realtime

import (
	"errors"
	"strings"
	"sync"
	"time"

	userdomain "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/user/domain"
)

const (
	EventParticipantJoined = "participant.joined"
	EventParticipantLeft   = "participant.left"
)

const (
	DefaultBufferSize       = 50
	DefaultSubscriberBuffer = 16
)

// SessionEvent is one presence change inside a consultation session.
type SessionEvent struct {
	ConsultationID string                 `json:"consultation_id"`
	Type           string                 `json:"type"`
	Anonymous      bool                   `json:"anonymous"`
	User           *userdomain.Projection `json:"user,omitempty"`
	At             time.Time              `json:"at"`
}

// Hub fans presence events out to every subscriber of a consultation's
// session. Slow subscribers drop events rather than block the sender.
type Hub struct {
	mu               sync.RWMutex
	sessions         map[string]*session
	bufferSize       int
	subscriberBuffer int
}

type session struct {
	mu     sync.Mutex
	buffer []SessionEvent
	subs   map[uint64]chan SessionEvent
	nextID uint64
}

type Subscription struct {
	hub            *Hub
	consultationID string
	id             uint64
	ch             chan SessionEvent
	once           sync.Once
}

func NewHub() *Hub {
	return &Hub{
		sessions:         make(map[string]*session),
		bufferSize:       DefaultBufferSize,
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

func (h *Hub) Publish(consultationID string, event SessionEvent) {
	if h == nil {
		return
	}
	id := strings.TrimSpace(consultationID)
	if id == "" {
		return
	}
	h.mu.RLock()
	sess := h.sessions[id]
	h.mu.RUnlock()
	if sess == nil {
		return
	}

	sess.mu.Lock()
	sess.buffer = append(sess.buffer, event)
	if len(sess.buffer) > h.bufferSize {
		sess.buffer = sess.buffer[len(sess.buffer)-h.bufferSize:]
	}
	subs := make([]chan SessionEvent, 0, len(sess.subs))
	for _, ch := range sess.subs {
		subs = append(subs, ch)
	}
	sess.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers a listener on a consultation session and returns
// the recent backlog so late joiners see who is already present.
func (h *Hub) Subscribe(consultationID string) (*Subscription, []SessionEvent, error) {
	if h == nil {
		return nil, nil, errors.New("hub_unavailable")
	}
	id := strings.TrimSpace(consultationID)
	if id == "" {
		return nil, nil, errors.New("invalid_consultation_id")
	}

	sess := h.ensureSession(id)
	sess.mu.Lock()
	if sess.subs == nil {
		sess.subs = make(map[uint64]chan SessionEvent)
	}
	subID := sess.nextID
	sess.nextID++
	ch := make(chan SessionEvent, h.subscriberBuffer)
	sess.subs[subID] = ch
	backlog := append([]SessionEvent(nil), sess.buffer...)
	sess.mu.Unlock()

	return &Subscription{
		hub:            h,
		consultationID: id,
		id:             subID,
		ch:             ch,
	}, backlog, nil
}

func (h *Hub) ensureSession(consultationID string) *session {
	h.mu.RLock()
	current := h.sessions[consultationID]
	h.mu.RUnlock()
	if current != nil {
		return current
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	current = h.sessions[consultationID]
	if current == nil {
		current = &session{subs: make(map[uint64]chan SessionEvent)}
		h.sessions[consultationID] = current
	}
	return current
}

func (h *Hub) unsubscribe(consultationID string, id uint64) {
	if h == nil {
		return
	}
	h.mu.RLock()
	sess := h.sessions[consultationID]
	h.mu.RUnlock()
	if sess == nil {
		return
	}

	sess.mu.Lock()
	delete(sess.subs, id)
	remaining := len(sess.subs)
	sess.mu.Unlock()
	if remaining != 0 {
		return
	}

	h.mu.Lock()
	current := h.sessions[consultationID]
	if current != sess {
		h.mu.Unlock()
		return
	}
	sess.mu.Lock()
	empty := len(sess.subs) == 0
	sess.mu.Unlock()
	if empty {
		delete(h.sessions, consultationID)
	}
	h.mu.Unlock()
}

func (s *Subscription) Events() <-chan SessionEvent {
	if s == nil {
		return nil
	}
	return s.ch
}

func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.consultationID, s.id)
	})
}
