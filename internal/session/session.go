// Package session implements the workout session state machine: the phase
// transitions between exercising, resting, set advance, exercise advance and
// completion, and the countdown arithmetic behind them.
//
// The controller is deterministic and single-owner: it never spawns
// goroutines, never reads the wall clock, and is mutated only through its
// operations, which all take the current time explicitly. The driver (a UI
// tick loop) is expected to call Tick frequently; remaining time is always
// recomputed from the absolute phase deadline, never accumulated, so a
// suspended and resumed process recovers the correct countdown on its next
// tick.
package session

import (
	"errors"
	"log"
	"time"

	"github.com/mkarlsen/circuit-timer/internal/routine"
)

// Phase is the sub-phase within the current set.
type Phase int

const (
	PhaseExercising Phase = iota
	PhaseResting
)

func (p Phase) String() string {
	switch p {
	case PhaseExercising:
		return "exercising"
	case PhaseResting:
		return "resting"
	default:
		return "unknown"
	}
}

// RunMode is the lifecycle state of the session.
type RunMode int

const (
	RunModeRunning RunMode = iota
	RunModePaused
	RunModeCompleted
	RunModeExiting
)

func (m RunMode) String() string {
	switch m {
	case RunModeRunning:
		return "running"
	case RunModePaused:
		return "paused"
	case RunModeCompleted:
		return "completed"
	case RunModeExiting:
		return "exiting"
	default:
		return "unknown"
	}
}

// ErrEmptyRoutine is returned by Start for a routine with no exercises.
var ErrEmptyRoutine = errors.New("session: routine has no exercises")

// AlertPort receives best-effort "this phase ends in d" notifications. At
// most one request is pending at a time; a new Schedule supersedes the prior
// one. Implementations must not block: the controller fires and forgets, and
// its own state stays correct whether or not the alert is ever delivered.
type AlertPort interface {
	Schedule(phase Phase, d time.Duration)
	Cancel()
}

// Snapshot is the read-only view handed to the UI after every operation.
type Snapshot struct {
	ExerciseIndex  int
	ExerciseCount  int
	ExerciseName   string
	CurrentSet     int
	SetCount       int
	Phase          Phase
	RunMode        RunMode
	TimeRemaining  time.Duration
	WaitingForReps bool
	Completed      bool
}

// Controller drives one workout session through its phases.
type Controller struct {
	routine routine.Routine
	alerts  AlertPort
	logger  *log.Logger

	exerciseIndex int
	currentSet    int // 1-based
	phase         Phase
	runMode       RunMode

	// Countdown state. phaseEndAt is the absolute deadline of the current
	// phase; it is only ever derived as now+duration when a phase starts or
	// resumes. armed is false for a rep-based exercising phase.
	armed         bool
	armedFor      time.Duration
	phaseEndAt    time.Time
	timeRemaining time.Duration

	// Latest timestamp any operation has observed. Ticks with an earlier
	// now are clamped to this so clock skew cannot produce negative
	// remaining time or undo an expiry.
	lastNow time.Time
}

// Start creates a running session at exercise 0, set 1, phase exercising.
// The routine must be non-empty and valid; it is not mutated or retained
// beyond reading.
func Start(r routine.Routine, alerts AlertPort, now time.Time, logger *log.Logger) (*Controller, error) {
	if alerts == nil {
		panic("session: alerts cannot be nil")
	}
	if logger == nil {
		panic("session: logger cannot be nil")
	}
	if len(r.Exercises) == 0 {
		return nil, ErrEmptyRoutine
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		routine:    r.Clone(),
		alerts:     alerts,
		logger:     logger,
		currentSet: 1,
		phase:      PhaseExercising,
		runMode:    RunModeRunning,
		lastNow:    now,
	}
	c.startExercisePhase(now)
	logger.Printf("Session: started %q (%d exercises)", r.Name, len(r.Exercises))
	return c, nil
}

// Tick recomputes remaining time from the absolute deadline and, when the
// current countdown has elapsed, performs exactly one phase-expiry
// transition. It is a no-op unless the session is running with a countdown
// armed, and is cheap and safe to call at any frequency.
func (c *Controller) Tick(now time.Time) Snapshot {
	if c.runMode != RunModeRunning {
		return c.Snapshot()
	}
	now = c.observe(now)
	if !c.armed {
		// Rep-based exercising phase: nothing counts down.
		return c.Snapshot()
	}

	remaining := c.phaseEndAt.Sub(now)
	if remaining > 0 {
		c.timeRemaining = remaining
		return c.Snapshot()
	}
	c.timeRemaining = 0
	c.advancePhase(now)
	return c.Snapshot()
}

// ConfirmRepsDone is the manual substitute for a countdown reaching zero on
// a rep-based exercise. It is ignored while resting, while not running, or
// when the current exercise is time-based.
func (c *Controller) ConfirmRepsDone(now time.Time) Snapshot {
	if c.runMode != RunModeRunning || c.phase != PhaseExercising || c.spec().TimeBased {
		c.logger.Printf("Session: ignoring rep confirmation (phase=%s, mode=%s)", c.phase, c.runMode)
		return c.Snapshot()
	}
	now = c.observe(now)
	c.advancePhase(now)
	return c.Snapshot()
}

// Pause freezes the session. The remaining time recorded at this instant is
// what Resume will re-arm; any pending alert is cancelled.
func (c *Controller) Pause(now time.Time) Snapshot {
	if c.runMode != RunModeRunning {
		return c.Snapshot()
	}
	now = c.observe(now)
	if c.armed {
		remaining := c.phaseEndAt.Sub(now)
		if remaining < 0 {
			remaining = 0
		}
		c.timeRemaining = remaining
		c.alerts.Cancel()
	}
	c.runMode = RunModePaused
	c.logger.Printf("Session: paused with %v remaining", c.timeRemaining)
	return c.Snapshot()
}

// Resume re-arms the countdown from the frozen remaining time: the deadline
// becomes now+remaining, so time spent paused does not count against the
// phase. For a rep-based exercising phase it only flips the run mode back.
func (c *Controller) Resume(now time.Time) Snapshot {
	if c.runMode != RunModePaused {
		return c.Snapshot()
	}
	now = c.observe(now)
	c.runMode = RunModeRunning
	if c.armed {
		c.phaseEndAt = now.Add(c.timeRemaining)
		c.alerts.Schedule(c.phase, c.timeRemaining)
	}
	c.logger.Printf("Session: resumed with %v remaining", c.timeRemaining)
	return c.Snapshot()
}

// Cancel ends the session unconditionally. Terminal: every later operation
// is a no-op returning the frozen snapshot.
func (c *Controller) Cancel() Snapshot {
	if c.runMode == RunModeExiting {
		return c.Snapshot()
	}
	c.runMode = RunModeExiting
	c.alerts.Cancel()
	c.logger.Printf("Session: cancelled at exercise %d, set %d", c.exerciseIndex, c.currentSet)
	return c.Snapshot()
}

// Snapshot returns the current state without advancing anything.
func (c *Controller) Snapshot() Snapshot {
	spec := c.spec()
	return Snapshot{
		ExerciseIndex: c.exerciseIndex,
		ExerciseCount: len(c.routine.Exercises),
		ExerciseName:  spec.Name,
		CurrentSet:    c.currentSet,
		SetCount:      spec.Sets,
		Phase:         c.phase,
		RunMode:       c.runMode,
		TimeRemaining: c.timeRemaining,
		WaitingForReps: c.phase == PhaseExercising && !spec.TimeBased &&
			(c.runMode == RunModeRunning || c.runMode == RunModePaused),
		Completed: c.runMode == RunModeCompleted,
	}
}

func (c *Controller) spec() routine.ExerciseSpec {
	return c.routine.Exercises[c.exerciseIndex]
}

// observe clamps a stale timestamp to the last one seen and records it.
func (c *Controller) observe(now time.Time) time.Time {
	if now.Before(c.lastNow) {
		now = c.lastNow
	}
	c.lastNow = now
	return now
}

// advancePhase is the phase-expiry transition, shared by countdown expiry
// and manual rep confirmation.
func (c *Controller) advancePhase(now time.Time) {
	spec := c.spec()
	switch c.phase {
	case PhaseResting:
		// The rest belongs to the set just finished.
		c.currentSet++
		if c.currentSet <= spec.Sets {
			c.phase = PhaseExercising
			c.startExercisePhase(now)
			return
		}
		c.advanceExercise(now)

	case PhaseExercising:
		// Rest is owed after every set, including the last one.
		if spec.RestDuration > 0 {
			c.phase = PhaseResting
			c.armCountdown(now, spec.RestDuration)
			return
		}
		if c.currentSet >= spec.Sets {
			c.advanceExercise(now)
			return
		}
		c.currentSet++
		c.startExercisePhase(now)
	}
}

func (c *Controller) advanceExercise(now time.Time) {
	c.currentSet = 1
	c.exerciseIndex++
	if c.exerciseIndex >= len(c.routine.Exercises) {
		c.exerciseIndex = len(c.routine.Exercises) - 1
		c.runMode = RunModeCompleted
		c.disarm()
		c.logger.Printf("Session: workout complete")
		return
	}
	c.phase = PhaseExercising
	c.logger.Printf("Session: advancing to exercise %d (%s)", c.exerciseIndex, c.spec().Name)
	c.startExercisePhase(now)
}

func (c *Controller) startExercisePhase(now time.Time) {
	spec := c.spec()
	if spec.TimeBased {
		c.armCountdown(now, spec.ExerciseDuration)
		return
	}
	c.disarm()
}

func (c *Controller) armCountdown(now time.Time, d time.Duration) {
	c.armed = true
	c.armedFor = d
	c.phaseEndAt = now.Add(d)
	c.timeRemaining = d
	c.alerts.Schedule(c.phase, d)
}

func (c *Controller) disarm() {
	c.armed = false
	c.armedFor = 0
	c.phaseEndAt = time.Time{}
	c.timeRemaining = 0
	c.alerts.Cancel()
}
