// Package alert implements the session's alert port: best-effort end-of-phase
// notifications delivered through the process timer wheel.
package alert

import (
	"log"
	"sync"
	"time"

	"github.com/mkarlsen/circuit-timer/internal/events"
	"github.com/mkarlsen/circuit-timer/internal/session"
)

// Event describes a fired alert.
type Event struct {
	Phase session.Phase
	At    time.Time
}

// Notifier holds at most one pending alert. Schedule supersedes any pending
// request; Cancel disarms it. When the timer fires, the event is fanned out
// to listeners (typically the UI, which flashes and rings the bell).
//
// The notifier is a side channel only: the session controller never consults
// it for time, so a late or lost alert cannot corrupt the countdown.
type Notifier struct {
	mu     sync.Mutex
	timer  *time.Timer
	seq    uint64 // guards against a superseded timer firing late
	fired  *events.CallbackEvent[Event]
	logger *log.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(logger *log.Logger) *Notifier {
	if logger == nil {
		panic("alert: logger cannot be nil")
	}
	return &Notifier{
		fired:  events.NewCallbackEvent[Event](false),
		logger: logger,
	}
}

// Schedule arms an alert for when the given phase ends, replacing any
// pending one. It never blocks.
func (n *Notifier) Schedule(phase session.Phase, d time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.timer != nil {
		n.timer.Stop()
	}
	n.seq++
	seq := n.seq
	n.timer = time.AfterFunc(d, func() { n.fire(seq, phase) })
	n.logger.Printf("Alert: scheduled %s alert in %v", phase, d)
}

// Cancel removes the pending alert, if any.
func (n *Notifier) Cancel() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.seq++
}

// ListenToFired registers a callback invoked whenever an alert fires.
// Returns a deregistration function.
func (n *Notifier) ListenToFired(fn func(Event)) func() {
	return n.fired.Listen(fn)
}

func (n *Notifier) fire(seq uint64, phase session.Phase) {
	n.mu.Lock()
	if seq != n.seq {
		// Superseded or cancelled after the timer already fired.
		n.mu.Unlock()
		return
	}
	n.timer = nil
	n.mu.Unlock()

	n.logger.Printf("Alert: %s phase ending", phase)
	n.fired.Notify(Event{Phase: phase, At: time.Now()})
}
