package sse

import (
	"sync"
	"sync/atomic"
)

// Topics published by the live refresh jobs
const (
	TopicSummary  = "summary"
	TopicActivity = "activity"
	TopicRecords  = "records"
)

// Event represents an SSE event to be sent to subscribers
type Event struct {
	Topic string
	Name  string
	Data  interface{}
}

// Hub fans typed events out to subscribers by topic
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
	bufferSize  int
	dropped     atomic.Uint64
}

// NewHub creates a new SSE Hub instance
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
		bufferSize:  10,
	}
}

// Subscribe registers one channel for every given topic and returns it with
// a cleanup function. The channel is closed by cleanup.
func (h *Hub) Subscribe(topics ...string) (chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.bufferSize)

	for _, topic := range topics {
		if h.subscribers[topic] == nil {
			h.subscribers[topic] = make(map[chan Event]struct{})
		}
		h.subscribers[topic][ch] = struct{}{}
	}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			for _, topic := range topics {
				delete(h.subscribers[topic], ch)
				if len(h.subscribers[topic]) == 0 {
					delete(h.subscribers, topic)
				}
			}
			close(ch)
		})
	}

	return ch, cleanup
}

// Publish sends an event to all subscribers of its topic. Slow subscribers
// whose buffer is full miss the event.
func (h *Hub) Publish(event Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for ch := range h.subscribers[event.Topic] {
		select {
		case ch <- event:
			delivered++
		default:
			h.dropped.Add(1)
		}
	}
	return delivered
}

// SubscriberCount returns the number of active subscribers for a topic
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[topic])
}

// Dropped counts events skipped because a subscriber buffer was full
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
