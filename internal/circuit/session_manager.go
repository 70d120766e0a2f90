package circuit

import (
	"log"
	"sync"
	"time"

	"github.com/mkarlsen/circuit-timer/internal/alert"
	"github.com/mkarlsen/circuit-timer/internal/goutil"
	"github.com/mkarlsen/circuit-timer/internal/routine"
	"github.com/mkarlsen/circuit-timer/internal/session"
)

// sessionCommandKind identifies commands sent to the session goroutine
type sessionCommandKind int

const (
	cmdStart sessionCommandKind = iota
	cmdPause
	cmdResume
	cmdConfirmReps
	cmdCancel
)

// sessionCommand carries a command and, for cmdStart, the routine to run
type sessionCommand struct {
	kind    sessionCommandKind
	routine routine.Routine
}

// SessionManager owns the session controller and is its single serialization
// point: every operation and every tick is applied on the manager's goroutine,
// so the controller itself needs no locking. Snapshots are published to the
// UIModel after every state change.
type SessionManager struct {
	model  *UIModel
	alerts *alert.Notifier
	waker  ScreenWaker
	logger *log.Logger

	tickInterval time.Duration
	clock        func() time.Time // swapped out in tests

	// Goroutine management
	cmdChan      chan sessionCommand
	doneChan     chan struct{} // Closed to signal shutdown
	wg           sync.WaitGroup
	shutdownOnce sync.Once

	unlistenAlerts func()
}

// NewSessionManager creates a SessionManager and starts its goroutine.
func NewSessionManager(model *UIModel, alerts *alert.Notifier, waker ScreenWaker, tickInterval time.Duration, logger *log.Logger) *SessionManager {
	if model == nil {
		panic("SessionManager: model cannot be nil")
	}
	if alerts == nil {
		panic("SessionManager: alerts cannot be nil")
	}
	if waker == nil {
		panic("SessionManager: waker cannot be nil")
	}
	if tickInterval <= 0 {
		panic("SessionManager: tickInterval must be positive")
	}
	if logger == nil {
		panic("SessionManager: logger cannot be nil")
	}

	sm := &SessionManager{
		model:        model,
		alerts:       alerts,
		waker:        waker,
		logger:       logger,
		tickInterval: tickInterval,
		clock:        time.Now,
		cmdChan:      make(chan sessionCommand, 1),
		doneChan:     make(chan struct{}),
	}

	// Forward fired alerts to the views
	sm.unlistenAlerts = alerts.ListenToFired(func(e alert.Event) {
		sm.model.NotifyAlertFlash(AlertFlash{Phase: e.Phase})
	})

	// Start the session execution goroutine
	sm.wg.Add(1)
	goutil.SafeGo(logger, func() { sm.runSessionLoop() })

	return sm
}

// StartSession starts a session for the given routine. Any active session is
// cancelled first.
func (sm *SessionManager) StartSession(r routine.Routine) {
	if len(r.Exercises) == 0 {
		sm.logger.Printf("SessionManager: Cannot start - routine %q has no exercises", r.Name)
		return
	}
	sm.logger.Printf("SessionManager: Starting session for %q", r.Name)
	sm.send(sessionCommand{kind: cmdStart, routine: r.Clone()})
}

// Pause pauses the running session
func (sm *SessionManager) Pause() {
	sm.send(sessionCommand{kind: cmdPause})
}

// Resume resumes a paused session
func (sm *SessionManager) Resume() {
	sm.send(sessionCommand{kind: cmdResume})
}

// ConfirmReps reports that the reps of the current rep-based exercise are done
func (sm *SessionManager) ConfirmReps() {
	sm.send(sessionCommand{kind: cmdConfirmReps})
}

// CancelSession abandons the active session
func (sm *SessionManager) CancelSession() {
	sm.send(sessionCommand{kind: cmdCancel})
}

// Shutdown stops the session manager and cleans up resources
// Safe to call multiple times - only the first call has effect
func (sm *SessionManager) Shutdown() {
	sm.shutdownOnce.Do(func() {
		sm.logger.Printf("SessionManager: Shutting down")
		sm.unlistenAlerts()
		close(sm.doneChan) // Signal goroutine to exit
		sm.wg.Wait()
		sm.logger.Printf("SessionManager: Shutdown complete")
	})
}

// send forwards a command unless the manager is already shut down.
func (sm *SessionManager) send(cmd sessionCommand) {
	select {
	case <-sm.doneChan:
		sm.logger.Printf("SessionManager: Dropping command - already shut down")
	case sm.cmdChan <- cmd:
	}
}

// runSessionLoop is the main goroutine that drives the session controller.
func (sm *SessionManager) runSessionLoop() {
	defer sm.wg.Done()

	ticker := time.NewTicker(sm.tickInterval)
	ticker.Stop() // Start stopped, will be started when a session starts

	var ctrl *session.Controller
	var routineName string

	// settle stops the ticker and releases the screen when the session is no
	// longer counting down.
	settle := func(snap session.Snapshot) {
		if snap.RunMode != session.RunModeRunning {
			ticker.Stop()
			sm.waker.KeepAwake(false)
		}
	}

	publish := func(snap session.Snapshot) {
		sm.model.SetSessionState(SessionState{
			Active:      true,
			RoutineName: routineName,
			Snapshot:    snap,
		})
	}

	for {
		select {
		case <-sm.doneChan:
			ticker.Stop()
			if ctrl != nil {
				ctrl.Cancel()
			}
			sm.waker.KeepAwake(false)
			sm.logger.Printf("SessionManager: Goroutine exiting")
			return

		case cmd := <-sm.cmdChan:
			switch cmd.kind {
			case cmdStart:
				if ctrl != nil {
					ctrl.Cancel()
					sm.logger.Printf("SessionManager: Cancelled previous session")
				}

				newCtrl, err := session.Start(cmd.routine, sm.alerts, sm.clock(), sm.logger)
				if err != nil {
					sm.logger.Printf("SessionManager: Failed to start session: %v", err)
					ctrl = nil
					sm.model.SetSessionState(SessionState{})
					continue
				}

				ctrl = newCtrl
				routineName = cmd.routine.Name
				ticker.Reset(sm.tickInterval)
				sm.waker.KeepAwake(true)
				publish(ctrl.Snapshot())

			case cmdPause:
				if ctrl == nil {
					sm.logger.Printf("SessionManager: No session to pause")
					continue
				}
				snap := ctrl.Pause(sm.clock())
				settle(snap)
				publish(snap)

			case cmdResume:
				if ctrl == nil {
					sm.logger.Printf("SessionManager: No session to resume")
					continue
				}
				snap := ctrl.Resume(sm.clock())
				if snap.RunMode == session.RunModeRunning {
					ticker.Reset(sm.tickInterval)
					sm.waker.KeepAwake(true)
				}
				publish(snap)

			case cmdConfirmReps:
				if ctrl == nil {
					sm.logger.Printf("SessionManager: No session to confirm reps on")
					continue
				}
				snap := ctrl.ConfirmRepsDone(sm.clock())
				settle(snap)
				publish(snap)

			case cmdCancel:
				if ctrl == nil {
					sm.logger.Printf("SessionManager: No session to cancel")
					continue
				}
				ctrl.Cancel()
				ctrl = nil
				ticker.Stop()
				sm.waker.KeepAwake(false)
				sm.model.SetSessionState(SessionState{})
			}

		case <-ticker.C:
			if ctrl == nil {
				ticker.Stop()
				continue
			}

			snap := ctrl.Tick(sm.clock())
			if snap.Completed {
				ticker.Stop()
				sm.waker.KeepAwake(false)
				sm.logger.Printf("SessionManager: Session complete")
			}
			publish(snap)
		}
	}
}
