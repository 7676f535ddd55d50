package progress

import (
	"sync"
	"time"

	"github.com/salavey13/carTest/internal/metrics"
	"github.com/salavey13/carTest/pkg/models"
)

// Event types carried on the bus.
const (
	EventConnected = "connected"
	EventProgress  = "progress"
	EventDone      = "done"
	EventError     = "error"
)

const subscriberBuffer = 100

// Bus fans progress events out to subscribers. Events are transient: a
// subscriber only sees what is published while it is attached, and a slow
// subscriber loses its oldest pending events first so the newest state
// always gets through.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan models.ProgressEvent]struct{}
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[chan models.ProgressEvent]struct{})}
}

// Subscribe registers a new subscriber and returns its channel.
func (b *Bus) Subscribe() chan models.ProgressEvent {
	ch := make(chan models.ProgressEvent, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	metrics.AddStreamConnection()
	return ch
}

// Unsubscribe detaches and closes the channel. Safe to call twice.
func (b *Bus) Unsubscribe(ch chan models.ProgressEvent) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
		metrics.RemoveStreamConnection()
	}
	b.mu.Unlock()
}

// Publish delivers ev to every subscriber. A zero timestamp is stamped with
// the current time. When a subscriber's buffer is full the oldest pending
// event is evicted to make room.
func (b *Bus) Publish(ev models.ProgressEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	metrics.RecordEvent(ev.Type)
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// Progress publishes an in-flight event for a tool. pct is clamped to 0..99;
// completion and failure have their own publishers.
func (b *Bus) Progress(tool, message string, pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 99 {
		pct = 99
	}
	b.Publish(models.ProgressEvent{Type: EventProgress, Tool: tool, Message: message, Progress: pct})
}

// Done publishes a terminal success event (progress 100).
func (b *Bus) Done(tool, message string) {
	b.Publish(models.ProgressEvent{Type: EventDone, Tool: tool, Message: message, Progress: 100})
}

// Fail publishes a terminal failure event (progress -1).
func (b *Bus) Fail(tool, message string) {
	b.Publish(models.ProgressEvent{Type: EventError, Tool: tool, Message: message, Progress: -1})
}
