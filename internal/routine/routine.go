package routine

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSpec wraps every validation failure so callers can match the
// class without parsing messages.
var ErrInvalidSpec = errors.New("invalid exercise spec")

// ExerciseSpec describes a single exercise within a routine.
// Time-based exercises count down ExerciseDuration per set; rep-based
// exercises wait for the user to confirm the set is done. RestDuration
// applies after every set, including the last one of the exercise.
type ExerciseSpec struct {
	Name             string
	TimeBased        bool
	Sets             int
	ExerciseDuration time.Duration
	RestDuration     time.Duration
}

// Validate checks the per-exercise invariants.
func (s ExerciseSpec) Validate() error {
	if s.Sets < 1 {
		return fmt.Errorf("%w: exercise %q: sets must be >= 1, got %d", ErrInvalidSpec, s.Name, s.Sets)
	}
	if s.ExerciseDuration < 0 {
		return fmt.Errorf("%w: exercise %q: exercise duration must not be negative, got %v", ErrInvalidSpec, s.Name, s.ExerciseDuration)
	}
	if s.RestDuration < 0 {
		return fmt.Errorf("%w: exercise %q: rest duration must not be negative, got %v", ErrInvalidSpec, s.Name, s.RestDuration)
	}
	return nil
}

// Routine is an ordered list of exercises. It is edited before a session
// starts and read-only while one is running.
type Routine struct {
	Name      string
	Exercises []ExerciseSpec
}

// Validate checks every exercise in the routine. An empty exercise list is
// valid here; whether a routine is startable is the session's concern.
func (r Routine) Validate() error {
	for i, ex := range r.Exercises {
		if err := ex.Validate(); err != nil {
			return fmt.Errorf("routine %q, exercise %d: %w", r.Name, i, err)
		}
	}
	return nil
}

// TotalDuration returns the scheduled duration of the routine. Rep-based
// exercise phases have no fixed length, so only their rest contributes.
func (r Routine) TotalDuration() time.Duration {
	var total time.Duration
	for _, ex := range r.Exercises {
		if ex.TimeBased {
			total += time.Duration(ex.Sets) * ex.ExerciseDuration
		}
		total += time.Duration(ex.Sets) * ex.RestDuration
	}
	return total
}

// Clone returns a deep copy so the editor can mutate a routine without
// touching the one a running session was started from.
func (r Routine) Clone() Routine {
	out := Routine{Name: r.Name}
	out.Exercises = make([]ExerciseSpec, len(r.Exercises))
	copy(out.Exercises, r.Exercises)
	return out
}

// BuiltinRoutines are the starter routines shipped with the app. They seed
// the user's library on first run.
var BuiltinRoutines = []Routine{
	{
		Name: "7 Minute Circuit",
		Exercises: []ExerciseSpec{
			{Name: "Jumping Jacks", TimeBased: true, Sets: 1, ExerciseDuration: 30 * time.Second, RestDuration: 10 * time.Second},
			{Name: "Wall Sit", TimeBased: true, Sets: 1, ExerciseDuration: 30 * time.Second, RestDuration: 10 * time.Second},
			{Name: "Push-ups", TimeBased: true, Sets: 1, ExerciseDuration: 30 * time.Second, RestDuration: 10 * time.Second},
			{Name: "Crunches", TimeBased: true, Sets: 1, ExerciseDuration: 30 * time.Second, RestDuration: 10 * time.Second},
			{Name: "Step-ups", TimeBased: true, Sets: 1, ExerciseDuration: 30 * time.Second, RestDuration: 10 * time.Second},
			{Name: "Squats", TimeBased: true, Sets: 1, ExerciseDuration: 30 * time.Second, RestDuration: 10 * time.Second},
			{Name: "Plank", TimeBased: true, Sets: 1, ExerciseDuration: 30 * time.Second, RestDuration: 10 * time.Second},
		},
	},
	{
		Name: "Tabata Intervals",
		Exercises: []ExerciseSpec{
			{Name: "Sprint", TimeBased: true, Sets: 8, ExerciseDuration: 20 * time.Second, RestDuration: 10 * time.Second},
		},
	},
	{
		Name: "Strength Basics",
		Exercises: []ExerciseSpec{
			{Name: "Squats", Sets: 3, RestDuration: 90 * time.Second},
			{Name: "Bench Press", Sets: 3, RestDuration: 90 * time.Second},
			{Name: "Deadlift", Sets: 3, RestDuration: 2 * time.Minute},
			{Name: "Plank Hold", TimeBased: true, Sets: 3, ExerciseDuration: 45 * time.Second, RestDuration: 45 * time.Second},
		},
	},
	{
		Name: "Core Blast",
		Exercises: []ExerciseSpec{
			{Name: "Crunches", Sets: 3, RestDuration: 30 * time.Second},
			{Name: "Leg Raises", Sets: 3, RestDuration: 30 * time.Second},
			{Name: "Side Plank", TimeBased: true, Sets: 2, ExerciseDuration: 30 * time.Second, RestDuration: 20 * time.Second},
			{Name: "Mountain Climbers", TimeBased: true, Sets: 2, ExerciseDuration: 40 * time.Second, RestDuration: 20 * time.Second},
		},
	},
}
