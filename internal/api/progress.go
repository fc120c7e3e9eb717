package api

import (
	"sync"

	"github.com/orgscope/orgscope/internal/domain"
)

// progressHub fans analysis progress events out to event-stream
// subscribers. Publishing never blocks; a subscriber that falls behind
// misses events.
type progressHub struct {
	mu   sync.Mutex
	subs map[chan domain.ProgressEvent]struct{}
}

func newProgressHub() *progressHub {
	return &progressHub{
		subs: make(map[chan domain.ProgressEvent]struct{}),
	}
}

func (h *progressHub) subscribe() chan domain.ProgressEvent {
	ch := make(chan domain.ProgressEvent, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *progressHub) unsubscribe(ch chan domain.ProgressEvent) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

func (h *progressHub) publish(ev domain.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
