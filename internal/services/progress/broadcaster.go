// Package progress fans run progress events out to any number of observers.
// Each topic keeps a bounded backlog for reconnecting clients. Publishing
// never blocks: a subscriber whose buffer is full loses the event.
package progress

import (
	"log/slog"
	"sync"

	"github.com/KirkDiggler/hall-runner/internal/entities/hall"
	"github.com/KirkDiggler/hall-runner/internal/errors"
	"github.com/KirkDiggler/hall-runner/internal/pkg/clock"
	"github.com/KirkDiggler/hall-runner/internal/pkg/idgen"
)

const (
	defaultBacklogSize = 200
	defaultBufferSize  = 256
)

// AccountTopic is the topic carrying one account's events
func AccountTopic(accountID string) string {
	return "account:" + accountID
}

// Config holds the broadcaster's dependencies and limits
type Config struct {
	Clock       clock.Clock
	IDGenerator idgen.Generator
	// BacklogSize is how many events each topic keeps for replay
	BacklogSize int
	// BufferSize is each subscriber's channel capacity
	BufferSize int
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.Clock == nil {
		vb.RequiredField("Clock")
	}
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}
	if c.BacklogSize < 0 {
		vb.Field("BacklogSize", "must not be negative")
	}
	if c.BufferSize < 0 {
		vb.Field("BufferSize", "must not be negative")
	}
	return vb.Build()
}

// SubscribeOptions controls backlog replay
type SubscribeOptions struct {
	// ReplayBacklog delivers the retained backlog before live events
	ReplayBacklog bool
	// AfterSeq limits the replay to events with a greater Seq
	AfterSeq uint64
}

// Broadcaster is a set of independent topics
type Broadcaster struct {
	clock       clock.Clock
	idGen       idgen.Generator
	backlogSize int
	bufferSize  int

	mu     sync.Mutex
	topics map[string]*topic
}

type topic struct {
	name    string
	seq     uint64
	backlog []hall.ProgressEvent
	subs    map[uint64]*Subscription
	nextSub uint64
}

// New creates a broadcaster with no topics
func New(cfg *Config) (*Broadcaster, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	b := &Broadcaster{
		clock:       cfg.Clock,
		idGen:       cfg.IDGenerator,
		backlogSize: cfg.BacklogSize,
		bufferSize:  cfg.BufferSize,
		topics:      make(map[string]*topic),
	}
	if b.backlogSize == 0 {
		b.backlogSize = defaultBacklogSize
	}
	if b.bufferSize == 0 {
		b.bufferSize = defaultBufferSize
	}
	return b, nil
}

func (b *Broadcaster) topicLocked(name string) *topic {
	t, ok := b.topics[name]
	if !ok {
		t = &topic{name: name, subs: make(map[uint64]*Subscription)}
		b.topics[name] = t
	}
	return t
}

// Publish stamps ev with the topic sequence, an ID and a timestamp, records
// it in the backlog and offers it to every subscriber. The stamped event is
// returned.
func (b *Broadcaster) Publish(topicName string, ev hall.ProgressEvent) hall.ProgressEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := b.topicLocked(topicName)
	t.seq++
	ev.Seq = t.seq
	ev.ID = b.idGen.Generate()
	if ev.Timestamp.IsZero() {
		ev.Timestamp = b.clock.Now()
	}
	if ev.Level == "" {
		ev.Level = hall.LevelInfo
	}

	t.backlog = append(t.backlog, ev)
	if over := len(t.backlog) - b.backlogSize; over > 0 {
		t.backlog = append([]hall.ProgressEvent(nil), t.backlog[over:]...)
	}

	for _, sub := range t.subs {
		sub.offer(ev)
	}
	return ev
}

// Subscribe attaches a new observer to a topic
func (b *Broadcaster) Subscribe(topicName string, opts SubscribeOptions) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := b.topicLocked(topicName)

	var replay []hall.ProgressEvent
	if opts.ReplayBacklog {
		for _, ev := range t.backlog {
			if ev.Seq > opts.AfterSeq {
				replay = append(replay, ev)
			}
		}
	}

	sub := &Subscription{
		b:     b,
		topic: topicName,
		id:    t.nextSub,
		ch:    make(chan hall.ProgressEvent, len(replay)+b.bufferSize),
	}
	t.nextSub++

	// the channel fits the replay plus live headroom, so this never blocks
	for _, ev := range replay {
		sub.ch <- ev
	}

	t.subs[sub.id] = sub
	return sub
}

// Backlog returns a copy of a topic's retained events
func (b *Broadcaster) Backlog(topicName string) []hall.ProgressEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[topicName]
	if !ok {
		return nil
	}
	out := make([]hall.ProgressEvent, len(t.backlog))
	copy(out, t.backlog)
	return out
}

// LastSeq returns the sequence number of the newest event on a topic
func (b *Broadcaster) LastSeq(topicName string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.topics[topicName]; ok {
		return t.seq
	}
	return 0
}

// SubscriberCount returns how many observers a topic has
func (b *Broadcaster) SubscriberCount(topicName string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.topics[topicName]; ok {
		return len(t.subs)
	}
	return 0
}

func (b *Broadcaster) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[sub.topic]
	if !ok {
		return
	}
	if _, ok := t.subs[sub.id]; ok {
		delete(t.subs, sub.id)
		close(sub.ch)
	}
}

// Subscription is one observer's view of a topic
type Subscription struct {
	b     *Broadcaster
	topic string
	id    uint64
	ch    chan hall.ProgressEvent

	// guarded by the broadcaster mutex
	dropped uint64
	closed  sync.Once
}

// Events delivers the topic's events in publish order. It is closed by Close.
func (s *Subscription) Events() <-chan hall.ProgressEvent {
	return s.ch
}

// Close detaches the subscription and closes its channel
func (s *Subscription) Close() {
	s.closed.Do(func() {
		s.b.unsubscribe(s)
	})
}

// Dropped returns how many events were lost because the buffer was full
func (s *Subscription) Dropped() uint64 {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	return s.dropped
}

func (s *Subscription) offer(ev hall.ProgressEvent) {
	select {
	case s.ch <- ev:
	default:
		s.dropped++
		slog.Warn("Dropped progress event for slow subscriber",
			"topic", s.topic,
			"seq", ev.Seq,
			"dropped", s.dropped,
		)
	}
}
