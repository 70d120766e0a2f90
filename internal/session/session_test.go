package session

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/circuit-timer/internal/routine"
)

var t0 = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type scheduledAlert struct {
	phase Phase
	d     time.Duration
}

// fakeAlerts records Schedule/Cancel calls for assertions.
type fakeAlerts struct {
	scheduled []scheduledAlert
	cancels   int
}

func (f *fakeAlerts) Schedule(p Phase, d time.Duration) {
	f.scheduled = append(f.scheduled, scheduledAlert{phase: p, d: d})
}

func (f *fakeAlerts) Cancel() {
	f.cancels++
}

func (f *fakeAlerts) last() scheduledAlert {
	return f.scheduled[len(f.scheduled)-1]
}

func timeBased(name string, sets int, exercise, rest time.Duration) routine.ExerciseSpec {
	return routine.ExerciseSpec{Name: name, TimeBased: true, Sets: sets, ExerciseDuration: exercise, RestDuration: rest}
}

func repBased(name string, sets int, rest time.Duration) routine.ExerciseSpec {
	return routine.ExerciseSpec{Name: name, Sets: sets, RestDuration: rest}
}

func mustStart(t *testing.T, r routine.Routine, alerts AlertPort) *Controller {
	t.Helper()
	c, err := Start(r, alerts, t0, testLogger())
	require.NoError(t, err)
	return c
}

func TestStart_EmptyRoutineRejected(t *testing.T) {
	c, err := Start(routine.Routine{Name: "empty"}, &fakeAlerts{}, t0, testLogger())
	require.ErrorIs(t, err, ErrEmptyRoutine)
	assert.Nil(t, c)
}

func TestStart_InvalidRoutineRejected(t *testing.T) {
	r := routine.Routine{Exercises: []routine.ExerciseSpec{{Name: "bad", Sets: 0}}}
	c, err := Start(r, &fakeAlerts{}, t0, testLogger())
	require.Error(t, err)
	assert.Nil(t, c)
}

func TestStart_TimeBasedArmsCountdown(t *testing.T) {
	alerts := &fakeAlerts{}
	r := routine.Routine{Exercises: []routine.ExerciseSpec{timeBased("Plank", 2, 30*time.Second, 10*time.Second)}}
	c := mustStart(t, r, alerts)

	snap := c.Snapshot()
	assert.Equal(t, 0, snap.ExerciseIndex)
	assert.Equal(t, 1, snap.CurrentSet)
	assert.Equal(t, PhaseExercising, snap.Phase)
	assert.Equal(t, RunModeRunning, snap.RunMode)
	assert.Equal(t, 30*time.Second, snap.TimeRemaining)
	assert.False(t, snap.WaitingForReps)

	require.Len(t, alerts.scheduled, 1)
	assert.Equal(t, scheduledAlert{PhaseExercising, 30 * time.Second}, alerts.last())
}

func TestStart_RepBasedWaitsForConfirmation(t *testing.T) {
	alerts := &fakeAlerts{}
	r := routine.Routine{Exercises: []routine.ExerciseSpec{repBased("Squats", 3, time.Minute)}}
	c := mustStart(t, r, alerts)

	snap := c.Snapshot()
	assert.Equal(t, time.Duration(0), snap.TimeRemaining)
	assert.True(t, snap.WaitingForReps)
	assert.Empty(t, alerts.scheduled)

	// Ticks do nothing while waiting for the user.
	snap2 := c.Tick(t0.Add(time.Hour))
	assert.Equal(t, snap, snap2)
}

func TestTick_CountsDownFromAbsoluteDeadline(t *testing.T) {
	r := routine.Routine{Exercises: []routine.ExerciseSpec{timeBased("Plank", 1, 30*time.Second, 0)}}
	c := mustStart(t, r, &fakeAlerts{})

	snap := c.Tick(t0.Add(12 * time.Second))
	assert.Equal(t, 18*time.Second, snap.TimeRemaining)

	// A long gap (process suspended) still yields wall-clock-accurate time.
	snap = c.Tick(t0.Add(29 * time.Second))
	assert.Equal(t, time.Second, snap.TimeRemaining)
}

// Scenario from the rest-then-advance model: one time-based exercise,
// 2 sets of 30s with 10s rest. Rest fires after every set, including the
// last, so the sequence is exercise, rest, exercise, rest, complete.
func TestScenario_TwoSetsWithRest(t *testing.T) {
	alerts := &fakeAlerts{}
	r := routine.Routine{Exercises: []routine.ExerciseSpec{timeBased("Plank", 2, 30*time.Second, 10*time.Second)}}
	c := mustStart(t, r, alerts)

	snap := c.Tick(t0.Add(30 * time.Second))
	assert.Equal(t, PhaseResting, snap.Phase)
	assert.Equal(t, 1, snap.CurrentSet)
	assert.Equal(t, 10*time.Second, snap.TimeRemaining)
	assert.Equal(t, scheduledAlert{PhaseResting, 10 * time.Second}, alerts.last())

	snap = c.Tick(t0.Add(40 * time.Second))
	assert.Equal(t, PhaseExercising, snap.Phase)
	assert.Equal(t, 2, snap.CurrentSet)
	assert.Equal(t, 30*time.Second, snap.TimeRemaining)

	snap = c.Tick(t0.Add(70 * time.Second))
	assert.Equal(t, PhaseResting, snap.Phase)
	assert.Equal(t, 2, snap.CurrentSet)

	snap = c.Tick(t0.Add(80 * time.Second))
	assert.True(t, snap.Completed)
	assert.Equal(t, RunModeCompleted, snap.RunMode)
	assert.Equal(t, time.Duration(0), snap.TimeRemaining)

	// Four phase starts were announced: two exercises, two rests.
	assert.Len(t, alerts.scheduled, 4)
}

// One rep-based exercise, single set, no rest: confirmation completes the
// whole workout immediately.
func TestScenario_SingleRepExerciseNoRest(t *testing.T) {
	r := routine.Routine{Exercises: []routine.ExerciseSpec{repBased("Deadlift", 1, 0)}}
	c := mustStart(t, r, &fakeAlerts{})

	snap := c.Snapshot()
	assert.True(t, snap.WaitingForReps)
	assert.Equal(t, time.Duration(0), snap.TimeRemaining)

	snap = c.ConfirmRepsDone(t0.Add(45 * time.Second))
	assert.True(t, snap.Completed)
	assert.False(t, snap.WaitingForReps)
}

// Time-based then rep-based with no rest in between: the countdown expiry
// advances straight into the rep-based exercise.
func TestScenario_TimeBasedIntoRepBased(t *testing.T) {
	r := routine.Routine{Exercises: []routine.ExerciseSpec{
		timeBased("Jumping Jacks", 1, 5*time.Second, 0),
		repBased("Push-ups", 1, 0),
	}}
	c := mustStart(t, r, &fakeAlerts{})

	snap := c.Tick(t0.Add(5 * time.Second))
	assert.Equal(t, 1, snap.ExerciseIndex)
	assert.Equal(t, "Push-ups", snap.ExerciseName)
	assert.True(t, snap.WaitingForReps)
	assert.Equal(t, time.Duration(0), snap.TimeRemaining)

	snap = c.ConfirmRepsDone(t0.Add(time.Minute))
	assert.True(t, snap.Completed)
}

// Rest is owed after the final set even when another exercise follows.
func TestController_RestAfterFinalSet(t *testing.T) {
	r := routine.Routine{Exercises: []routine.ExerciseSpec{
		timeBased("Wall Sit", 1, 10*time.Second, 5*time.Second),
		timeBased("Step-ups", 1, 10*time.Second, 0),
	}}
	c := mustStart(t, r, &fakeAlerts{})

	snap := c.Tick(t0.Add(10 * time.Second))
	assert.Equal(t, PhaseResting, snap.Phase)
	assert.Equal(t, 0, snap.ExerciseIndex)

	snap = c.Tick(t0.Add(15 * time.Second))
	assert.Equal(t, PhaseExercising, snap.Phase)
	assert.Equal(t, 1, snap.ExerciseIndex)
	assert.Equal(t, 1, snap.CurrentSet)
}

// Rep-based exercises owe rest by the same rule as time-based ones.
func TestConfirmReps_SchedulesRest(t *testing.T) {
	alerts := &fakeAlerts{}
	r := routine.Routine{Exercises: []routine.ExerciseSpec{repBased("Squats", 2, 30*time.Second)}}
	c := mustStart(t, r, alerts)

	snap := c.ConfirmRepsDone(t0.Add(20 * time.Second))
	assert.Equal(t, PhaseResting, snap.Phase)
	assert.Equal(t, 30*time.Second, snap.TimeRemaining)
	assert.Equal(t, scheduledAlert{PhaseResting, 30 * time.Second}, alerts.last())

	snap = c.Tick(t0.Add(50 * time.Second))
	assert.Equal(t, PhaseExercising, snap.Phase)
	assert.Equal(t, 2, snap.CurrentSet)
	assert.True(t, snap.WaitingForReps)
}

// Zero rest with more sets remaining steps directly to the next set.
func TestTick_ZeroRestStepsToNextSet(t *testing.T) {
	r := routine.Routine{Exercises: []routine.ExerciseSpec{timeBased("Sprint", 3, 20*time.Second, 0)}}
	c := mustStart(t, r, &fakeAlerts{})

	snap := c.Tick(t0.Add(20 * time.Second))
	assert.Equal(t, PhaseExercising, snap.Phase)
	assert.Equal(t, 2, snap.CurrentSet)
	assert.Equal(t, 20*time.Second, snap.TimeRemaining)
}

func TestConfirmReps_InvalidOperations(t *testing.T) {
	t.Run("time-based exercise", func(t *testing.T) {
		r := routine.Routine{Exercises: []routine.ExerciseSpec{timeBased("Plank", 1, 30*time.Second, 0)}}
		c := mustStart(t, r, &fakeAlerts{})
		before := c.Snapshot()
		after := c.ConfirmRepsDone(t0.Add(time.Second))
		assert.Equal(t, before, after)
	})

	t.Run("while resting", func(t *testing.T) {
		r := routine.Routine{Exercises: []routine.ExerciseSpec{repBased("Squats", 2, 30*time.Second)}}
		c := mustStart(t, r, &fakeAlerts{})
		c.ConfirmRepsDone(t0)
		before := c.Snapshot()
		require.Equal(t, PhaseResting, before.Phase)
		after := c.ConfirmRepsDone(t0.Add(time.Second))
		assert.Equal(t, before, after)
	})
}

func TestTick_IdempotentAfterTransition(t *testing.T) {
	r := routine.Routine{Exercises: []routine.ExerciseSpec{timeBased("Plank", 2, 30*time.Second, 10*time.Second)}}
	c := mustStart(t, r, &fakeAlerts{})

	now := t0.Add(30 * time.Second)
	first := c.Tick(now)
	require.Equal(t, PhaseResting, first.Phase)

	second := c.Tick(now)
	assert.Equal(t, first, second, "repeated tick must not double-advance")
}

func TestTick_StaleTimestampClamped(t *testing.T) {
	r := routine.Routine{Exercises: []routine.ExerciseSpec{timeBased("Plank", 1, 30*time.Second, 0)}}
	c := mustStart(t, r, &fakeAlerts{})

	snap := c.Tick(t0.Add(10 * time.Second))
	require.Equal(t, 20*time.Second, snap.TimeRemaining)

	// Clock went backwards: remaining time must not grow.
	snap = c.Tick(t0.Add(5 * time.Second))
	assert.Equal(t, 20*time.Second, snap.TimeRemaining)
}

func TestPauseResume_PreservesRemaining(t *testing.T) {
	alerts := &fakeAlerts{}
	r := routine.Routine{Exercises: []routine.ExerciseSpec{timeBased("Plank", 1, 30*time.Second, 0)}}
	c := mustStart(t, r, alerts)

	snap := c.Pause(t0.Add(12 * time.Second))
	assert.Equal(t, RunModePaused, snap.RunMode)
	assert.Equal(t, 18*time.Second, snap.TimeRemaining)
	assert.Equal(t, 1, alerts.cancels)

	// Ticks while paused change nothing, however much time passes.
	snap2 := c.Tick(t0.Add(10 * time.Minute))
	assert.Equal(t, snap, snap2)

	// Resuming after a long pause re-arms the full frozen remainder.
	resumeAt := t0.Add(20 * time.Minute)
	snap = c.Resume(resumeAt)
	assert.Equal(t, RunModeRunning, snap.RunMode)
	assert.Equal(t, 18*time.Second, snap.TimeRemaining)
	assert.Equal(t, scheduledAlert{PhaseExercising, 18 * time.Second}, alerts.last())

	snap = c.Tick(resumeAt.Add(9 * time.Second))
	assert.Equal(t, 9*time.Second, snap.TimeRemaining)
}

func TestPauseResume_RepBasedIsModeFlipOnly(t *testing.T) {
	alerts := &fakeAlerts{}
	r := routine.Routine{Exercises: []routine.ExerciseSpec{repBased("Squats", 1, 0)}}
	c := mustStart(t, r, alerts)

	snap := c.Pause(t0.Add(5 * time.Second))
	assert.Equal(t, RunModePaused, snap.RunMode)

	// No countdown to re-arm, so resume schedules nothing.
	before := len(alerts.scheduled)
	snap = c.Resume(t0.Add(10 * time.Second))
	assert.Equal(t, RunModeRunning, snap.RunMode)
	assert.True(t, snap.WaitingForReps)
	assert.Len(t, alerts.scheduled, before)
}

func TestPause_WhenNotRunningIsNoOp(t *testing.T) {
	r := routine.Routine{Exercises: []routine.ExerciseSpec{timeBased("Plank", 1, 30*time.Second, 0)}}
	c := mustStart(t, r, &fakeAlerts{})

	c.Pause(t0.Add(time.Second))
	before := c.Snapshot()
	after := c.Pause(t0.Add(2 * time.Second))
	assert.Equal(t, before, after)

	after = c.Resume(t0.Add(3 * time.Second))
	require.Equal(t, RunModeRunning, after.RunMode)
	same := c.Resume(t0.Add(4 * time.Second))
	assert.Equal(t, after, same)
}

func TestCancel_IsTerminal(t *testing.T) {
	alerts := &fakeAlerts{}
	r := routine.Routine{Exercises: []routine.ExerciseSpec{timeBased("Plank", 2, 30*time.Second, 10*time.Second)}}
	c := mustStart(t, r, alerts)
	c.Tick(t0.Add(10 * time.Second))

	snap := c.Cancel()
	assert.Equal(t, RunModeExiting, snap.RunMode)
	assert.Equal(t, 1, alerts.cancels)

	// Everything after cancel is a frozen no-op.
	assert.Equal(t, snap, c.Tick(t0.Add(time.Hour)))
	assert.Equal(t, snap, c.ConfirmRepsDone(t0.Add(time.Hour)))
	assert.Equal(t, snap, c.Pause(t0.Add(time.Hour)))
	assert.Equal(t, snap, c.Resume(t0.Add(time.Hour)))
	assert.Equal(t, snap, c.Cancel())
}

func TestCompleted_IgnoresFurtherOperations(t *testing.T) {
	r := routine.Routine{Exercises: []routine.ExerciseSpec{timeBased("Plank", 1, 5*time.Second, 0)}}
	c := mustStart(t, r, &fakeAlerts{})

	snap := c.Tick(t0.Add(5 * time.Second))
	require.True(t, snap.Completed)

	assert.Equal(t, snap, c.Tick(t0.Add(time.Minute)))
	assert.Equal(t, snap, c.ConfirmRepsDone(t0.Add(time.Minute)))
}

func TestZeroDurationExercise_AdvancesOnTick(t *testing.T) {
	r := routine.Routine{Exercises: []routine.ExerciseSpec{
		timeBased("Instant", 1, 0, 0),
		timeBased("Plank", 1, 10*time.Second, 0),
	}}
	c := mustStart(t, r, &fakeAlerts{})

	snap := c.Tick(t0)
	assert.Equal(t, 1, snap.ExerciseIndex)
	assert.Equal(t, 10*time.Second, snap.TimeRemaining)
}

// Any routine driven by strictly increasing ticks (confirming rep sets as
// they come up) must reach completion, with remaining time never negative
// and never above the longest configured phase.
func TestEventualCompletion(t *testing.T) {
	r := routine.Routine{Exercises: []routine.ExerciseSpec{
		timeBased("Jumping Jacks", 2, 15*time.Second, 5*time.Second),
		repBased("Push-ups", 3, 10*time.Second),
		timeBased("Plank", 1, 20*time.Second, 5*time.Second),
	}}
	c := mustStart(t, r, &fakeAlerts{})

	maxPhase := 20 * time.Second
	now := t0
	for i := 0; i < 1000; i++ {
		now = now.Add(time.Second)
		snap := c.Tick(now)
		if snap.WaitingForReps {
			snap = c.ConfirmRepsDone(now)
		}
		require.GreaterOrEqual(t, snap.TimeRemaining, time.Duration(0))
		require.LessOrEqual(t, snap.TimeRemaining, maxPhase)
		if snap.Completed {
			return
		}
	}
	t.Fatal("session never completed")
}
