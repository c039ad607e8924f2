// Package monitor polls the host clipboard for changes and emits a
// ChangeEvent per distinct copy, without ever reading payload bytes
// itself.
package monitor

import (
	"context"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/clipkeep/clipkeepd/internal/domain"
)

// HostClipboard is the platform-specific collaborator the Monitor
// polls. Implementations wrap the OS pasteboard/clipboard API.
type HostClipboard interface {
	// ChangeCounter returns a monotonic, never-decreasing counter that
	// advances on every distinct copy during the process lifetime.
	ChangeCounter() (int64, error)
	// AvailableTypes returns the host-native type tag tokens currently
	// on the clipboard (e.g. "public.utf8-plain-text", "public.png").
	AvailableTypes() ([]string, error)
	// ReadText returns the clipboard's text representation, preferring
	// the richest text type and falling back to a legacy string type.
	// ok is false when no text representation is available.
	ReadText() (text string, ok bool, err error)
	// ReadImage returns the clipboard's image representation, trying
	// TIFF, then PNG, then JPEG, and returning the first hit along with
	// the type tag it was served under. ok is false when none matched.
	ReadImage() (data []byte, typeTag string, ok bool, err error)
}

// Monitor drives a cooperative poll loop over a HostClipboard.
type Monitor struct {
	host         HostClipboard
	pollInterval time.Duration

	lastCounter int64
	haveSeen    bool

	hostErrLimiter *rate.Limiter
}

// New returns a Monitor polling host at the given interval. pollInterval
// falls back to 500ms if non-positive.
func New(host HostClipboard, pollInterval time.Duration) *Monitor {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Monitor{
		host:         host,
		pollInterval: pollInterval,
		// at most one "host unavailable" line per 10s, regardless of how
		// many ticks fail in that window.
		hostErrLimiter: rate.NewLimiter(rate.Every(10*time.Second), 1),
	}
}

// Start runs the poll loop until ctx is cancelled. Each tick reads the
// host's change counter; on a difference from the last observed value
// it emits a ChangeEvent on out. Emission never blocks the loop: a full
// channel is logged and the event dropped, since the Monitor must never
// terminate on a slow or gone consumer.
func (m *Monitor) Start(ctx context.Context, out chan<- domain.ChangeEvent) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.poll(out)
		}
	}
}

func (m *Monitor) poll(out chan<- domain.ChangeEvent) {
	counter, err := m.host.ChangeCounter()
	if err != nil {
		if m.hostErrLimiter.Allow() {
			log.Printf("monitor: host clipboard unavailable: %v", err)
		}
		return
	}

	if m.haveSeen && counter == m.lastCounter {
		return
	}

	types, err := m.host.AvailableTypes()
	if err != nil {
		if m.hostErrLimiter.Allow() {
			log.Printf("monitor: failed to read clipboard types: %v", err)
		}
		// lastCounter is NOT advanced: this counter is retried next tick
		// rather than being silently skipped forever.
		return
	}

	m.haveSeen = true
	m.lastCounter = counter

	event := domain.ChangeEvent{
		Counter:   counter,
		Types:     types,
		Timestamp: time.Now(),
	}

	select {
	case out <- event:
	default:
		log.Printf("monitor: consumer channel full, dropping change event (counter=%d)", counter)
	}
}
