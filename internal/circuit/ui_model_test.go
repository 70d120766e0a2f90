package circuit

import (
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/circuit-timer/internal/routine"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestModel(t *testing.T) (*UIModel, chan string) {
	t.Helper()
	uiLogChan := make(chan string, 16)
	model := NewUIModel(testLogger(), uiLogChan)
	t.Cleanup(model.Shutdown)
	return model, uiLogChan
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never met")
}

func testRoutines() []routine.Routine {
	return []routine.Routine{
		{Name: "A", Exercises: []routine.ExerciseSpec{
			{Name: "Plank", TimeBased: true, Sets: 1, ExerciseDuration: 30 * time.Second, RestDuration: 10 * time.Second},
		}},
		{Name: "B", Exercises: []routine.ExerciseSpec{
			{Name: "Squats", Sets: 3, RestDuration: time.Minute},
		}},
	}
}

func TestUIModel_SetRoutinesNotifiesAndClampsSelection(t *testing.T) {
	model, _ := newTestModel(t)

	ch := make(chan RoutineListState, 1)
	defer model.ListenToRoutines(ch)()

	model.SetRoutines(testRoutines(), 5)

	state := <-ch
	require.Len(t, state.Routines, 2)
	assert.Equal(t, 1, state.Selected)
}

func TestUIModel_GetRoutinesReturnsCopies(t *testing.T) {
	model, _ := newTestModel(t)
	model.SetRoutines(testRoutines(), 0)

	state := model.GetRoutines()
	state.Routines[0].Name = "mutated"
	state.Routines[0].Exercises[0].Sets = 99

	fresh := model.GetRoutines()
	assert.Equal(t, "A", fresh.Routines[0].Name)
	assert.Equal(t, 1, fresh.Routines[0].Exercises[0].Sets)
}

func TestUIModel_GetSelectedRoutine(t *testing.T) {
	model, _ := newTestModel(t)

	_, ok := model.GetSelectedRoutine()
	assert.False(t, ok)

	model.SetRoutines(testRoutines(), 1)
	r, ok := model.GetSelectedRoutine()
	require.True(t, ok)
	assert.Equal(t, "B", r.Name)
}

func TestUIModel_SelectRoutineSkipsRedundantNotify(t *testing.T) {
	model, _ := newTestModel(t)
	model.SetRoutines(testRoutines(), 0)

	ch := make(chan RoutineListState, 4)
	defer model.ListenToRoutines(ch)()
	<-ch // replayed current state

	model.SelectRoutine(0)
	model.SelectRoutine(1)

	state := <-ch
	assert.Equal(t, 1, state.Selected)
	assert.Empty(t, ch)
}

func TestUIModel_SetModeNotifies(t *testing.T) {
	model, _ := newTestModel(t)

	ch := make(chan UIState, 2)
	defer model.ListenToUIState(ch)()

	model.SetMode(UIModeSession)

	state := <-ch
	assert.Equal(t, UIModeSession, state.Mode)
	assert.Equal(t, UIModeSession, model.GetUIState().Mode)
}

func TestUIModel_LogTail(t *testing.T) {
	model, uiLogChan := newTestModel(t)

	for i := 0; i < 5; i++ {
		uiLogChan <- fmt.Sprintf("line %d\n", i)
	}

	waitFor(t, func() bool { return len(model.GetLogTail(10)) == 5 })

	tail := model.GetLogTail(2)
	require.Len(t, tail, 2)
	assert.Equal(t, "line 3\n", tail[0])
	assert.Equal(t, "line 4\n", tail[1])

	assert.Empty(t, model.GetLogTail(0))
}

func TestUIModel_CloseApplication(t *testing.T) {
	model, _ := newTestModel(t)

	ch := make(chan struct{}, 1)
	defer model.ListenToCloseApplication(ch)()

	model.RequestCloseApplication()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("close signal never arrived")
	}
}

func TestUIModel_SessionStateRoundTrip(t *testing.T) {
	model, _ := newTestModel(t)

	ch := make(chan SessionState, 1)
	defer model.ListenToSession(ch)()

	model.SetSessionState(SessionState{Active: true, RoutineName: "A"})

	state := <-ch
	assert.True(t, state.Active)
	assert.Equal(t, "A", state.RoutineName)
	assert.Equal(t, state, model.GetSessionState())
}
