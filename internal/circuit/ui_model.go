package circuit

import (
	"context"
	"log"
	"sync"

	"github.com/mkarlsen/circuit-timer/internal/events"
	"github.com/mkarlsen/circuit-timer/internal/goutil"
	"github.com/mkarlsen/circuit-timer/internal/routine"
	"github.com/mkarlsen/circuit-timer/internal/session"
)

// UIState holds the current state of the UI that views need to render
type UIState struct {
	Mode UIMode
}

// RoutineListState is the routine library plus the current selection
type RoutineListState struct {
	Routines []routine.Routine
	Selected int
}

// SessionState is what the session screen renders: whether a session is
// active, which routine it runs, and the controller's latest snapshot.
type SessionState struct {
	Active      bool
	RoutineName string
	Snapshot    session.Snapshot
}

// AlertFlash is published when an end-of-phase alert fires so views can
// flash and ring the bell.
type AlertFlash struct {
	Phase session.Phase
}

// UIModel holds the observable application state. Mutations go through
// setters that publish to the matching event, so views stay in sync without
// polling.
type UIModel struct {
	logEvent              *events.ChannelEvent[string]
	routinesEvent         *events.ChannelEvent[RoutineListState]
	routines              []routine.Routine
	selectedRoutine       int
	uiStateEvent          *events.ChannelEvent[UIState]
	uiState               UIState
	sessionEvent          *events.ChannelEvent[SessionState]
	sessionState          SessionState
	alertFlashEvent       *events.ChannelEvent[AlertFlash]
	closeApplicationEvent *events.ChannelEvent[struct{}]
	logLines              []string
	logMu                 sync.RWMutex
	mu                    sync.RWMutex
	ctx                   context.Context
	cancel                context.CancelFunc
	wg                    sync.WaitGroup
	logger                *log.Logger
}

const maxLogLines = 1000

func NewUIModel(logger *log.Logger, uiLogChan <-chan string) *UIModel {
	if logger == nil {
		panic("UIModel: logger cannot be nil")
	}
	if uiLogChan == nil {
		panic("UIModel: uiLogChan cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	model := &UIModel{
		logEvent:              events.NewChannelEvent[string](false),
		routinesEvent:         events.NewChannelEvent[RoutineListState](true),
		uiStateEvent:          events.NewChannelEvent[UIState](true),
		uiState:               UIState{Mode: UIModeRoutineEditor},
		sessionEvent:          events.NewChannelEvent[SessionState](true),
		alertFlashEvent:       events.NewChannelEvent[AlertFlash](false),
		closeApplicationEvent: events.NewChannelEvent[struct{}](true),
		logLines:              make([]string, 0, maxLogLines),
		ctx:                   ctx,
		cancel:                cancel,
		logger:                logger,
	}

	// Read from the UI log channel and populate logLines
	model.wg.Add(1)
	goutil.SafeGo(model.logger, func() { model.readFromLogChannel(ctx, uiLogChan) })

	return model
}

// Shutdown stops all goroutines and waits for them to finish
func (m *UIModel) Shutdown() {
	m.logger.Println("UIModel: Shutting down")
	m.cancel()
	m.wg.Wait()
	m.logger.Println("UIModel: Shutdown complete")
}

// ListenToLog registers a channel to receive log messages
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToLog(ch chan<- string) func() {
	return m.logEvent.Listen(ch)
}

// ListenToCloseApplication registers a channel to receive close application signals
func (m *UIModel) ListenToCloseApplication(ch chan<- struct{}) func() {
	return m.closeApplicationEvent.Listen(ch)
}

// RequestCloseApplication signals that the application should close
func (m *UIModel) RequestCloseApplication() {
	m.closeApplicationEvent.Notify(struct{}{})
}

// ListenToUIState registers a channel to receive UI state changes
func (m *UIModel) ListenToUIState(ch chan<- UIState) func() {
	return m.uiStateEvent.Listen(ch)
}

// GetUIState returns the current UI state
func (m *UIModel) GetUIState() UIState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uiState
}

// SetMode updates the current UI mode and notifies listeners
func (m *UIModel) SetMode(mode UIMode) {
	m.mu.Lock()
	if m.uiState.Mode == mode {
		m.mu.Unlock()
		return
	}
	m.uiState.Mode = mode
	state := m.uiState
	m.mu.Unlock()

	m.uiStateEvent.Notify(state)
}

// ListenToRoutines registers a channel to receive routine library changes
func (m *UIModel) ListenToRoutines(ch chan<- RoutineListState) func() {
	return m.routinesEvent.Listen(ch)
}

// GetRoutines returns a copy of the current routine library state
func (m *UIModel) GetRoutines() RoutineListState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.buildRoutineListState()
}

// GetSelectedRoutine returns the currently selected routine, if any
func (m *UIModel) GetSelectedRoutine() (routine.Routine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.selectedRoutine < 0 || m.selectedRoutine >= len(m.routines) {
		return routine.Routine{}, false
	}
	return m.routines[m.selectedRoutine].Clone(), true
}

// SetRoutines replaces the routine library and notifies listeners. The
// selection is clamped to the new list.
func (m *UIModel) SetRoutines(routines []routine.Routine, selected int) {
	m.mu.Lock()
	m.routines = make([]routine.Routine, 0, len(routines))
	for _, r := range routines {
		m.routines = append(m.routines, r.Clone())
	}
	m.selectedRoutine = clampIndex(selected, len(m.routines))
	state := m.buildRoutineListState()
	m.mu.Unlock()

	m.routinesEvent.Notify(state)
}

// SelectRoutine updates the selection and notifies listeners
func (m *UIModel) SelectRoutine(index int) {
	m.mu.Lock()
	index = clampIndex(index, len(m.routines))
	if index == m.selectedRoutine {
		m.mu.Unlock()
		return
	}
	m.selectedRoutine = index
	state := m.buildRoutineListState()
	m.mu.Unlock()

	m.routinesEvent.Notify(state)
}

// buildRoutineListState copies the library for publication.
// MUST be called with mu held.
func (m *UIModel) buildRoutineListState() RoutineListState {
	state := RoutineListState{
		Routines: make([]routine.Routine, 0, len(m.routines)),
		Selected: m.selectedRoutine,
	}
	for _, r := range m.routines {
		state.Routines = append(state.Routines, r.Clone())
	}
	return state
}

// ListenToSession registers a channel to receive session state updates
func (m *UIModel) ListenToSession(ch chan<- SessionState) func() {
	return m.sessionEvent.Listen(ch)
}

// GetSessionState returns the current session state
func (m *UIModel) GetSessionState() SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionState
}

// SetSessionState updates the session state and notifies listeners
func (m *UIModel) SetSessionState(state SessionState) {
	m.mu.Lock()
	m.sessionState = state
	m.mu.Unlock()

	m.sessionEvent.Notify(state)
}

// ListenToAlertFlash registers a channel to receive alert flashes
func (m *UIModel) ListenToAlertFlash(ch chan<- AlertFlash) func() {
	return m.alertFlashEvent.Listen(ch)
}

// NotifyAlertFlash publishes an alert flash to the views
func (m *UIModel) NotifyAlertFlash(flash AlertFlash) {
	m.alertFlashEvent.Notify(flash)
}

// readFromLogChannel reads log lines from the channel and populates logLines
func (m *UIModel) readFromLogChannel(ctx context.Context, logChan <-chan string) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-logChan:
			if !ok {
				return
			}

			m.logMu.Lock()
			m.logLines = append(m.logLines, line)
			if len(m.logLines) > maxLogLines {
				m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
			}
			m.logMu.Unlock()

			// Notify listeners for immediate display
			m.logEvent.Notify(line)
		}
	}
}

// GetLogTail returns the last n lines of logs
func (m *UIModel) GetLogTail(n int) []string {
	m.logMu.RLock()
	defer m.logMu.RUnlock()

	if n <= 0 {
		return []string{}
	}

	if n >= len(m.logLines) {
		result := make([]string, len(m.logLines))
		copy(result, m.logLines)
		return result
	}

	result := make([]string, n)
	copy(result, m.logLines[len(m.logLines)-n:])
	return result
}

func clampIndex(index, length int) int {
	if length == 0 {
		return 0
	}
	if index < 0 {
		return 0
	}
	if index >= length {
		return length - 1
	}
	return index
}
