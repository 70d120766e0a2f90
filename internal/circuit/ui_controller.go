package circuit

import (
	"fmt"
	"log"
	"time"

	"github.com/mkarlsen/circuit-timer/internal/routine"
	"github.com/mkarlsen/circuit-timer/internal/session"
)

// UIController handles UI events and coordinates the UIModel, the routine
// store and the SessionManager. Edits go through the model so views update,
// and every successful mutation is persisted immediately.
type UIController struct {
	model   *UIModel
	manager *SessionManager
	store   *routineStore
	logger  *log.Logger
}

// NewUIController creates a new UIController with the given dependencies and
// loads the persisted routine library into the model.
func NewUIController(model *UIModel, manager *SessionManager, routinesFile string, logger *log.Logger) *UIController {
	if model == nil {
		panic("UIController: model cannot be nil")
	}
	if manager == nil {
		panic("UIController: manager cannot be nil")
	}
	if logger == nil {
		panic("UIController: logger cannot be nil")
	}

	c := &UIController{
		model:   model,
		manager: manager,
		store:   newRoutineStore(routinesFile, logger),
		logger:  logger,
	}

	routines, selected := c.store.getRoutines()
	c.model.SetRoutines(routines, selected)

	return c
}

// OnEscapeKey handles when the Escape key is pressed
func (c *UIController) OnEscapeKey() {
	c.model.RequestCloseApplication()
}

// OnModeChange handles when the user requests a mode change
func (c *UIController) OnModeChange(mode UIMode) {
	if info, ok := GetUIModeInfo(mode); ok {
		c.logger.Printf("Switching to %s mode", info.DisplayName)
	}
	c.model.SetMode(mode)
}

// --- Routine Library Methods ---

// persist writes the model's current library state to disk.
func (c *UIController) persist() {
	state := c.model.GetRoutines()
	c.store.setRoutines(state.Routines, state.Selected)
}

// mutateRoutines applies fn to a copy of the library, pushes the result to
// the model and persists it. fn returns the index to select afterwards.
func (c *UIController) mutateRoutines(fn func(routines []routine.Routine, selected int) ([]routine.Routine, int)) {
	state := c.model.GetRoutines()
	routines, selected := fn(state.Routines, state.Selected)
	c.model.SetRoutines(routines, selected)
	c.persist()
}

// mutateSelected applies fn to the selected routine, or logs if there is none.
func (c *UIController) mutateSelected(fn func(r *routine.Routine)) {
	c.mutateRoutines(func(routines []routine.Routine, selected int) ([]routine.Routine, int) {
		if selected < 0 || selected >= len(routines) {
			c.logger.Printf("No routine selected")
			return routines, selected
		}
		fn(&routines[selected])
		return routines, selected
	})
}

// SelectRoutine handles when a routine is selected from the list
func (c *UIController) SelectRoutine(index int) {
	c.model.SelectRoutine(index)
	c.persist()
}

// NewRoutine appends an empty routine to the library and selects it
func (c *UIController) NewRoutine() {
	c.mutateRoutines(func(routines []routine.Routine, selected int) ([]routine.Routine, int) {
		name := fmt.Sprintf("New Routine %d", len(routines)+1)
		routines = append(routines, routine.Routine{Name: name})
		c.logger.Printf("Created routine %q", name)
		return routines, len(routines) - 1
	})
}

// DeleteRoutine removes the selected routine from the library
func (c *UIController) DeleteRoutine() {
	c.mutateRoutines(func(routines []routine.Routine, selected int) ([]routine.Routine, int) {
		if selected < 0 || selected >= len(routines) {
			c.logger.Printf("No routine selected")
			return routines, selected
		}
		c.logger.Printf("Deleted routine %q", routines[selected].Name)
		routines = append(routines[:selected], routines[selected+1:]...)
		return routines, clampIndex(selected, len(routines))
	})
}

// RenameRoutine sets the selected routine's name
func (c *UIController) RenameRoutine(name string) {
	if name == "" {
		c.logger.Printf("Routine name cannot be empty")
		return
	}
	c.mutateSelected(func(r *routine.Routine) {
		r.Name = name
	})
}

// ImportRoutine loads a routine from a JSON file and appends it to the library
func (c *UIController) ImportRoutine(path string) {
	r, err := routine.Load(path)
	if err != nil {
		c.logger.Printf("Import failed: %v", err)
		return
	}
	c.mutateRoutines(func(routines []routine.Routine, selected int) ([]routine.Routine, int) {
		routines = append(routines, r)
		c.logger.Printf("Imported routine %q from %s", r.Name, path)
		return routines, len(routines) - 1
	})
}

// ExportRoutine writes the selected routine to a JSON file
func (c *UIController) ExportRoutine(path string) {
	r, ok := c.model.GetSelectedRoutine()
	if !ok {
		c.logger.Printf("No routine selected")
		return
	}
	if err := r.Save(path); err != nil {
		c.logger.Printf("Export failed: %v", err)
		return
	}
	c.logger.Printf("Exported routine %q to %s", r.Name, path)
}

// --- Exercise Editing Methods ---

// mutateExercise applies fn to one exercise of the selected routine.
func (c *UIController) mutateExercise(index int, fn func(ex *routine.ExerciseSpec)) {
	c.mutateSelected(func(r *routine.Routine) {
		if index < 0 || index >= len(r.Exercises) {
			c.logger.Printf("Invalid exercise index: %d", index)
			return
		}
		fn(&r.Exercises[index])
	})
}

// AddExercise appends a default time-based exercise to the selected routine
func (c *UIController) AddExercise() {
	c.mutateSelected(func(r *routine.Routine) {
		r.Exercises = append(r.Exercises, routine.ExerciseSpec{
			Name:             fmt.Sprintf("Exercise %d", len(r.Exercises)+1),
			TimeBased:        true,
			Sets:             DefaultSets,
			ExerciseDuration: DefaultExerciseDuration,
			RestDuration:     DefaultRestDuration,
		})
	})
}

// RemoveExercise removes the exercise at index from the selected routine
func (c *UIController) RemoveExercise(index int) {
	c.mutateSelected(func(r *routine.Routine) {
		if index < 0 || index >= len(r.Exercises) {
			c.logger.Printf("Invalid exercise index: %d", index)
			return
		}
		r.Exercises = append(r.Exercises[:index], r.Exercises[index+1:]...)
	})
}

// MoveExerciseUp swaps the exercise with the one before it
func (c *UIController) MoveExerciseUp(index int) {
	c.mutateSelected(func(r *routine.Routine) {
		if index < 1 || index >= len(r.Exercises) {
			return
		}
		r.Exercises[index-1], r.Exercises[index] = r.Exercises[index], r.Exercises[index-1]
	})
}

// MoveExerciseDown swaps the exercise with the one after it
func (c *UIController) MoveExerciseDown(index int) {
	c.mutateSelected(func(r *routine.Routine) {
		if index < 0 || index >= len(r.Exercises)-1 {
			return
		}
		r.Exercises[index], r.Exercises[index+1] = r.Exercises[index+1], r.Exercises[index]
	})
}

// RenameExercise sets the exercise's display name
func (c *UIController) RenameExercise(index int, name string) {
	if name == "" {
		c.logger.Printf("Exercise name cannot be empty")
		return
	}
	c.mutateExercise(index, func(ex *routine.ExerciseSpec) {
		ex.Name = name
	})
}

// ToggleExerciseKind flips an exercise between time-based and rep-based
func (c *UIController) ToggleExerciseKind(index int) {
	c.mutateExercise(index, func(ex *routine.ExerciseSpec) {
		ex.TimeBased = !ex.TimeBased
		if ex.TimeBased && ex.ExerciseDuration == 0 {
			ex.ExerciseDuration = DefaultExerciseDuration
		}
	})
}

// AdjustSets changes the set count by delta, clamped to [1, MaxSets]
func (c *UIController) AdjustSets(index, delta int) {
	c.mutateExercise(index, func(ex *routine.ExerciseSpec) {
		ex.Sets = clampInt(ex.Sets+delta, 1, MaxSets)
	})
}

// AdjustExerciseDuration changes the work duration by delta steps
func (c *UIController) AdjustExerciseDuration(index, delta int) {
	c.mutateExercise(index, func(ex *routine.ExerciseSpec) {
		if !ex.TimeBased {
			c.logger.Printf("Exercise %q is rep-based - no work duration to adjust", ex.Name)
			return
		}
		ex.ExerciseDuration = clampDuration(ex.ExerciseDuration+time.Duration(delta)*DurationStep, DurationStep, MaxPhaseDuration)
	})
}

// AdjustRestDuration changes the rest duration by delta steps. Zero rest is
// allowed: the session then steps straight to the next set.
func (c *UIController) AdjustRestDuration(index, delta int) {
	c.mutateExercise(index, func(ex *routine.ExerciseSpec) {
		ex.RestDuration = clampDuration(ex.RestDuration+time.Duration(delta)*DurationStep, 0, MaxPhaseDuration)
	})
}

// --- Session Methods ---

// StartSession starts a session for the selected routine and switches to the
// session screen
func (c *UIController) StartSession() {
	r, ok := c.model.GetSelectedRoutine()
	if !ok {
		c.logger.Printf("No routine selected")
		return
	}
	if len(r.Exercises) == 0 {
		c.logger.Printf("Routine %q has no exercises - add some first", r.Name)
		return
	}
	c.manager.StartSession(r)
	c.OnModeChange(UIModeSession)
}

// ToggleSession pauses, resumes or starts a session based on current state
func (c *UIController) ToggleSession() {
	state := c.model.GetSessionState()
	if !state.Active {
		c.StartSession()
		return
	}
	switch state.Snapshot.RunMode {
	case session.RunModeRunning:
		c.manager.Pause()
	case session.RunModePaused:
		c.manager.Resume()
	default:
		c.StartSession()
	}
}

// ConfirmReps reports the current rep-based set as done
func (c *UIController) ConfirmReps() {
	c.manager.ConfirmReps()
}

// CancelSession abandons the active session and returns to the editor
func (c *UIController) CancelSession() {
	c.manager.CancelSession()
	c.OnModeChange(UIModeRoutineEditor)
}

// Shutdown stops the session manager
func (c *UIController) Shutdown() {
	c.manager.Shutdown()
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampDuration(v, lo, hi time.Duration) time.Duration {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
