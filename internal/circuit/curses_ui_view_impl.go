package circuit

import (
	"fmt"
	"log"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/mkarlsen/circuit-timer/internal/routine"
	"github.com/mkarlsen/circuit-timer/internal/session"
)

// Page names for tview.Pages
const (
	pageRoutineEditor = "routine_editor"
	pageSession       = "session"
	pageInput         = "input"
)

// CursesUIViewImpl implements UIViewImpl using tview (curses-based terminal UI)
type CursesUIViewImpl struct {
	logger      *log.Logger
	app         *tview.Application
	model       *UIModel
	currentMode UIMode

	// Captured on the first draw, used for the bell on alert flashes
	screen tcell.Screen

	// Root container that holds all pages
	pages *tview.Pages

	// Shared components (visible in all modes)
	logView  *tview.TextView
	mainFlex *tview.Flex // Main layout: mode content on left, logs on right

	// Routine Editor mode components
	editorFlex       *tview.Flex
	editorTabWidgets []*tview.Box
	routineList      *tview.List
	exerciseList     *tview.List
	detailsPanel     *tview.TextView
	routines         RoutineListState // Latest library state for callbacks

	// Session mode components
	sessionFlex       *tview.Flex
	sessionTabWidgets []*tview.Box
	sessionPanel      *tview.TextView

	// Input dialog state
	inputActive bool
}

func NewCursesUIView(logger *log.Logger, app *tview.Application, model *UIModel) *CursesUIViewImpl {
	return &CursesUIViewImpl{
		logger:      logger,
		app:         app,
		model:       model,
		currentMode: UIModeRoutineEditor,
	}
}

// Initialize sets up the tview widgets
func (ui *CursesUIViewImpl) Initialize(controller *UIController) {
	// Create shared log view
	// Note: Don't use SetChangedFunc with app.Draw() - it can cause hangs during shutdown
	// when the app has been stopped but log messages are still being written.
	// The BaseUIView's event listeners already call Draw() after updating content.
	ui.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	ui.logView.SetBorder(true).SetTitle(" Logs ")

	// Create pages container for mode switching
	ui.pages = tview.NewPages()

	// Initialize each mode
	ui.initRoutineEditorMode(controller)
	ui.initSessionMode(controller)

	// Add pages
	ui.pages.AddPage(pageRoutineEditor, ui.editorFlex, true, true)
	ui.pages.AddPage(pageSession, ui.sessionFlex, true, false)

	// Create main layout: pages on left, logs on right
	ui.mainFlex = tview.NewFlex().
		AddItem(ui.pages, 0, 2, true).
		AddItem(ui.logView, 0, 1, false)

	// Capture the screen so FlashAlert can ring the terminal bell
	ui.app.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		ui.screen = screen
		return false
	})

	// Set initial focus
	ui.setFocusForCurrentMode()
}

// initRoutineEditorMode sets up the Routine Editor mode UI
func (ui *CursesUIViewImpl) initRoutineEditorMode(controller *UIController) {
	// Create instructions box at the top
	instructionsText := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	instructionsText.SetText("[yellow]Enter[white] Select  |  [yellow]n[white]/[yellow]D[white]/[yellow]R[white] New/Delete/Rename Routine  |  [yellow]i[white]/[yellow]o[white] Import/Export  |  [yellow]s[white] Start\n[yellow]a[white]/[yellow]d[white]/[yellow]e[white] Add/Delete/Rename Exercise  |  [yellow]t[white] Kind  |  [yellow]+-[white] Sets  |  [yellow][][white] Work  |  [yellow]{}[white] Rest  |  [yellow]K[white]/[yellow]J[white] Move")

	// Routine library list
	ui.routineList = tview.NewList().
		ShowSecondaryText(true).
		SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			ui.logger.Printf("UI: Routine selected: index=%d, name=%s", index, mainText)
			controller.SelectRoutine(index)
		})
	ui.routineList.SetBorder(true).SetTitle(" Routines ")

	// Exercise list for the selected routine
	ui.exerciseList = tview.NewList().
		ShowSecondaryText(true)
	ui.exerciseList.SetBorder(true).SetTitle(" Exercises ")

	// Routine details panel
	ui.detailsPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.detailsPanel.SetBorder(true).SetTitle(" Details ")
	ui.updateDetailsDisplay()

	ui.editorTabWidgets = append(ui.editorTabWidgets, ui.routineList.Box)
	ui.editorTabWidgets = append(ui.editorTabWidgets, ui.exerciseList.Box)

	// Right column: exercises on top, details below
	rightColumn := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.exerciseList, 0, 2, false).
		AddItem(ui.detailsPanel, 0, 1, false)

	listsRowFlex := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(ui.routineList, 0, 1, true).
		AddItem(rightColumn, 0, 2, false)

	// Create editor layout: instructions at top, lists below
	ui.editorFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructionsText, 2, 0, false).
		AddItem(listsRowFlex, 0, 1, true)
}

// initSessionMode sets up the Session mode UI
func (ui *CursesUIViewImpl) initSessionMode(controller *UIController) {
	ui.sessionPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	ui.sessionPanel.SetBorder(true).SetTitle(" Session ")
	ui.renderSessionDisplay(SessionState{})

	ui.sessionTabWidgets = append(ui.sessionTabWidgets, ui.sessionPanel.Box)

	ui.sessionFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.sessionPanel, 0, 1, true)
}

// SetRoutineList updates the routine library display
func (ui *CursesUIViewImpl) SetRoutineList(state RoutineListState) {
	ui.routines = state

	ui.routineList.Clear()
	for _, r := range state.Routines {
		secondary := fmt.Sprintf("%d exercises, %s", len(r.Exercises), formatDuration(r.TotalDuration()))
		ui.routineList.AddItem(r.Name, secondary, 0, nil)
	}
	if state.Selected >= 0 && state.Selected < len(state.Routines) {
		ui.routineList.SetCurrentItem(state.Selected)
	}

	ui.updateExerciseListDisplay()
	ui.updateDetailsDisplay()
}

// updateExerciseListDisplay refills the exercise list from the selected routine
func (ui *CursesUIViewImpl) updateExerciseListDisplay() {
	current := ui.exerciseList.GetCurrentItem()
	ui.exerciseList.Clear()

	r, ok := ui.selectedRoutine()
	if !ok {
		return
	}
	ui.exerciseList.SetTitle(fmt.Sprintf(" Exercises - %s ", r.Name))

	for _, ex := range r.Exercises {
		var secondary string
		if ex.TimeBased {
			secondary = fmt.Sprintf("%d sets x %s work, %s rest", ex.Sets, formatDuration(ex.ExerciseDuration), formatDuration(ex.RestDuration))
		} else {
			secondary = fmt.Sprintf("%d sets x reps, %s rest", ex.Sets, formatDuration(ex.RestDuration))
		}
		ui.exerciseList.AddItem(ex.Name, secondary, 0, nil)
	}

	if current >= 0 && current < len(r.Exercises) {
		ui.exerciseList.SetCurrentItem(current)
	}
}

// updateDetailsDisplay formats and displays the selected routine's details
func (ui *CursesUIViewImpl) updateDetailsDisplay() {
	if ui.detailsPanel == nil {
		return
	}

	var text string

	r, ok := ui.selectedRoutine()
	if !ok {
		text = "\n  [yellow]Routine Editor[white]\n\n"
		text += "  Select a routine with Enter, or press [yellow]n[white] to create one.\n"
	} else {
		text = "\n"
		text += fmt.Sprintf("  [yellow]%s[white]\n\n", r.Name)
		text += fmt.Sprintf("  [gray]Exercises:[white] %d\n", len(r.Exercises))
		text += fmt.Sprintf("  [gray]Scheduled:[white] %s\n\n", formatDuration(r.TotalDuration()))
		if len(r.Exercises) == 0 {
			text += "  [gray]Press[white] [yellow]a[white] [gray]to add an exercise.[white]\n"
		} else {
			text += "  [green]Press s to start this routine[white]\n"
		}
	}

	ui.detailsPanel.SetText(text)
}

// selectedRoutine returns the routine currently selected in the library
func (ui *CursesUIViewImpl) selectedRoutine() (routine.Routine, bool) {
	if ui.routines.Selected < 0 || ui.routines.Selected >= len(ui.routines.Routines) {
		return routine.Routine{}, false
	}
	return ui.routines.Routines[ui.routines.Selected], true
}

// UpdateSessionState updates the session display
func (ui *CursesUIViewImpl) UpdateSessionState(state SessionState) {
	ui.sessionPanel.SetBorderColor(tcell.ColorDefault)
	ui.renderSessionDisplay(state)
}

// FlashAlert signals an end-of-phase alert with the bell and a border flash.
// The border resets on the next session state update.
func (ui *CursesUIViewImpl) FlashAlert(flash AlertFlash) {
	ui.sessionPanel.SetBorderColor(tcell.ColorYellow)
	if ui.screen != nil {
		ui.screen.Beep()
	}
}

// renderSessionDisplay formats and displays the session state
func (ui *CursesUIViewImpl) renderSessionDisplay(state SessionState) {
	if ui.sessionPanel == nil {
		return
	}

	var text string

	if !state.Active {
		text = "\n\n  [yellow]Session[white]\n\n"
		text += "  No active session.\n\n"
		text += "  [gray]Go to the Routine Editor (press 1), select a routine\n"
		text += "  and press s to start.[white]\n"
		ui.sessionPanel.SetText(text)
		return
	}

	snap := state.Snapshot

	text = "\n"
	switch snap.RunMode {
	case session.RunModePaused:
		text += fmt.Sprintf("  [yellow]%s[white] [gray](PAUSED)[white]\n\n", state.RoutineName)
	default:
		text += fmt.Sprintf("  [yellow]%s[white]\n\n", state.RoutineName)
	}

	text += fmt.Sprintf("  [gray]Exercise:[white] %s (%d/%d)\n", snap.ExerciseName, snap.ExerciseIndex+1, snap.ExerciseCount)
	text += fmt.Sprintf("  [gray]Set:[white]      %d/%d\n\n", snap.CurrentSet, snap.SetCount)

	if snap.Completed {
		text += "  [green]Workout complete![white]\n\n"
		text += "  [gray]Press[white] [yellow]x[white] [gray]to return to the editor[white]\n"
		ui.sessionPanel.SetText(text)
		return
	}

	switch snap.Phase {
	case session.PhaseExercising:
		text += "  [green]EXERCISE[white]\n\n"
	case session.PhaseResting:
		text += "  [blue]REST[white]\n\n"
	}

	if snap.WaitingForReps {
		text += "  Do your reps.\n\n"
		text += "  [gray]Press[white] [yellow]Enter[white] [gray]when the set is done[white]\n"
	} else {
		text += fmt.Sprintf("  [yellow]%s[white]\n", formatDurationMMSS(snap.TimeRemaining))
	}

	text += "\n  [gray]Space[white] Pause/Resume  |  [gray]x[white] Cancel\n"

	ui.sessionPanel.SetText(text)
}

// SetMode switches the UI to the specified mode
func (ui *CursesUIViewImpl) SetMode(mode UIMode) {
	if ui.currentMode == mode {
		return
	}

	ui.currentMode = mode

	switch mode {
	case UIModeRoutineEditor:
		ui.pages.SwitchToPage(pageRoutineEditor)
	case UIModeSession:
		ui.pages.SwitchToPage(pageSession)
	}

	ui.setFocusForCurrentMode()
	ui.app.Draw()
}

// GetCurrentMode returns the currently active UI mode
func (ui *CursesUIViewImpl) GetCurrentMode() UIMode {
	return ui.currentMode
}

// setFocusForCurrentMode sets focus to the first widget in the current mode
func (ui *CursesUIViewImpl) setFocusForCurrentMode() {
	var widgets []*tview.Box
	switch ui.currentMode {
	case UIModeRoutineEditor:
		widgets = ui.editorTabWidgets
	case UIModeSession:
		widgets = ui.sessionTabWidgets
	}

	if len(widgets) > 0 {
		ui.app.SetFocus(widgets[0])
	}
}

// getTabWidgetsForCurrentMode returns the tab widgets for the current mode
func (ui *CursesUIViewImpl) getTabWidgetsForCurrentMode() []*tview.Box {
	switch ui.currentMode {
	case UIModeRoutineEditor:
		return ui.editorTabWidgets
	case UIModeSession:
		return ui.sessionTabWidgets
	default:
		return nil
	}
}

// promptInput opens a one-line input dialog and calls onDone on Enter.
func (ui *CursesUIViewImpl) promptInput(title, initial string, onDone func(string)) {
	input := tview.NewInputField().
		SetLabel(" > ").
		SetText(initial)
	input.SetDoneFunc(func(key tcell.Key) {
		text := input.GetText()
		ui.closeInput()
		if key == tcell.KeyEnter && text != "" {
			onDone(text)
		}
	})
	input.SetBorder(true).SetTitle(fmt.Sprintf(" %s ", title))

	// Center the dialog over the current page
	modal := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			AddItem(nil, 0, 1, false).
			AddItem(input, 60, 0, true).
			AddItem(nil, 0, 1, false), 3, 0, true).
		AddItem(nil, 0, 1, false)

	ui.inputActive = true
	ui.pages.AddPage(pageInput, modal, true, true)
	ui.app.SetFocus(input)
}

func (ui *CursesUIViewImpl) closeInput() {
	ui.inputActive = false
	ui.pages.RemovePage(pageInput)
	ui.setFocusForCurrentMode()
}

// SetupKeyboardHandlers sets up keyboard event handlers
func (ui *CursesUIViewImpl) SetupKeyboardHandlers(controller *UIController) {
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// While an input dialog is open, all keys belong to it
		if ui.inputActive {
			return event
		}

		// Number keys for mode switching (1-9)
		if event.Key() == tcell.KeyRune {
			if mode, ok := GetUIModeByKey(event.Rune()); ok {
				// Delegate to controller - it will update the model, which will notify us
				controller.OnModeChange(mode)
				return nil
			}
		}

		// Tab to switch focus between widgets in current mode
		if event.Key() == tcell.KeyTab {
			widgets := ui.getTabWidgetsForCurrentMode()
			widgetCount := len(widgets)
			if widgetCount > 0 {
				for i := 0; i < widgetCount+1; i++ {
					idx := i % widgetCount
					if widgets[idx].HasFocus() {
						nextIdx := (idx + 1) % widgetCount
						ui.app.SetFocus(widgets[nextIdx])
						break
					}
				}
			}
			return nil
		}

		// Escape to quit
		if event.Key() == tcell.KeyEscape {
			controller.OnEscapeKey()
			return nil
		}

		// Mode-specific key handlers
		switch ui.currentMode {
		case UIModeRoutineEditor:
			return ui.handleEditorKey(event, controller)
		case UIModeSession:
			return ui.handleSessionKey(event, controller)
		}

		return event
	})
}

// handleEditorKey handles Routine Editor mode keys
func (ui *CursesUIViewImpl) handleEditorKey(event *tcell.EventKey, controller *UIController) *tcell.EventKey {
	if event.Key() != tcell.KeyRune {
		return event
	}

	exerciseIdx := ui.exerciseList.GetCurrentItem()

	switch event.Rune() {
	// Routine library
	case 'n':
		controller.NewRoutine()
	case 'D':
		controller.DeleteRoutine()
	case 'R':
		name := ""
		if r, ok := ui.selectedRoutine(); ok {
			name = r.Name
		}
		ui.promptInput("Rename Routine", name, controller.RenameRoutine)
	case 'i':
		ui.promptInput("Import Routine (path)", "", controller.ImportRoutine)
	case 'o':
		ui.promptInput("Export Routine (path)", "", controller.ExportRoutine)
	case 's':
		controller.StartSession()

	// Exercise editing
	case 'a':
		controller.AddExercise()
	case 'd':
		controller.RemoveExercise(exerciseIdx)
	case 'e':
		name := ""
		if r, ok := ui.selectedRoutine(); ok && exerciseIdx >= 0 && exerciseIdx < len(r.Exercises) {
			name = r.Exercises[exerciseIdx].Name
		}
		ui.promptInput("Rename Exercise", name, func(text string) {
			controller.RenameExercise(exerciseIdx, text)
		})
	case 't':
		controller.ToggleExerciseKind(exerciseIdx)
	case '+', '=':
		controller.AdjustSets(exerciseIdx, 1)
	case '-':
		controller.AdjustSets(exerciseIdx, -1)
	case ']':
		controller.AdjustExerciseDuration(exerciseIdx, 1)
	case '[':
		controller.AdjustExerciseDuration(exerciseIdx, -1)
	case '}':
		controller.AdjustRestDuration(exerciseIdx, 1)
	case '{':
		controller.AdjustRestDuration(exerciseIdx, -1)
	case 'K':
		controller.MoveExerciseUp(exerciseIdx)
		if exerciseIdx > 0 {
			ui.exerciseList.SetCurrentItem(exerciseIdx - 1)
		}
	case 'J':
		controller.MoveExerciseDown(exerciseIdx)
		if exerciseIdx < ui.exerciseList.GetItemCount()-1 {
			ui.exerciseList.SetCurrentItem(exerciseIdx + 1)
		}

	default:
		return event
	}
	return nil
}

// handleSessionKey handles Session mode keys
func (ui *CursesUIViewImpl) handleSessionKey(event *tcell.EventKey, controller *UIController) *tcell.EventKey {
	// Enter to confirm reps on a rep-based exercise
	if event.Key() == tcell.KeyEnter {
		controller.ConfirmReps()
		return nil
	}

	if event.Key() != tcell.KeyRune {
		return event
	}

	switch event.Rune() {
	// Space to pause/resume (or start the selected routine)
	case ' ':
		controller.ToggleSession()
	// 'x' to cancel the session
	case 'x':
		controller.CancelSession()
	default:
		return event
	}
	return nil
}

// GetLogViewHeight returns the visible height of the log view
func (ui *CursesUIViewImpl) GetLogViewHeight() int {
	_, _, _, height := ui.logView.GetInnerRect()
	return height
}

// ClearLogView clears the log view
func (ui *CursesUIViewImpl) ClearLogView() {
	ui.logView.Clear()
}

// WriteLogLine writes a line to the log view
func (ui *CursesUIViewImpl) WriteLogLine(line string) error {
	_, err := fmt.Fprint(ui.logView, line)
	return err
}

// Draw refreshes/redraws the UI
func (ui *CursesUIViewImpl) Draw() error {
	ui.app.Draw()
	return nil
}

// Run starts the UI and blocks until it exits
func (ui *CursesUIViewImpl) Run() error {
	// SetRoot must be called before setting focus, otherwise focus may be reset
	ui.app.SetRoot(ui.mainFlex, true)
	ui.setFocusForCurrentMode()
	return ui.app.Run()
}

// Stop stops the UI framework
func (ui *CursesUIViewImpl) Stop() {
	ui.app.Stop()
}
