package circuit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/circuit-timer/internal/routine"
)

func TestRoutineStore_SeedsBuiltinsOnMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routines.json")
	store := newRoutineStore(path, testLogger())

	routines, selected := store.getRoutines()
	assert.Len(t, routines, len(routine.BuiltinRoutines))
	assert.Equal(t, 0, selected)
}

func TestRoutineStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routines.json")
	store := newRoutineStore(path, testLogger())

	want := []routine.Routine{
		{Name: "Custom", Exercises: []routine.ExerciseSpec{
			{Name: "Burpees", TimeBased: true, Sets: 4, ExerciseDuration: 45 * time.Second, RestDuration: 15 * time.Second},
			{Name: "Pull-ups", Sets: 3, RestDuration: 90 * time.Second},
		}},
	}
	store.setRoutines(want, 0)

	// A fresh store reading the same file sees the same library.
	reloaded := newRoutineStore(path, testLogger())
	routines, selected := reloaded.getRoutines()
	require.Len(t, routines, 1)
	assert.Equal(t, want[0], routines[0])
	assert.Equal(t, 0, selected)
}

func TestRoutineStore_PersistsSelection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routines.json")
	store := newRoutineStore(path, testLogger())

	routines, _ := store.getRoutines()
	store.setRoutines(routines, 2)

	reloaded := newRoutineStore(path, testLogger())
	_, selected := reloaded.getRoutines()
	assert.Equal(t, 2, selected)
}

func TestRoutineStore_CorruptFileFallsBackToBuiltins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routines.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	store := newRoutineStore(path, testLogger())
	routines, _ := store.getRoutines()
	assert.Len(t, routines, len(routine.BuiltinRoutines))
}

func TestRoutineStore_GetReturnsCopies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routines.json")
	store := newRoutineStore(path, testLogger())

	routines, _ := store.getRoutines()
	require.NotEmpty(t, routines)
	routines[0].Name = "mutated"

	fresh, _ := store.getRoutines()
	assert.NotEqual(t, "mutated", fresh[0].Name)
}
