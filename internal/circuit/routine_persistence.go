package circuit

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/mkarlsen/circuit-timer/internal/routine"
)

type routineStoreData struct {
	Routines []routine.Routine `json:"routines"`
	Selected int               `json:"selected"`
}

// routineStore persists the routine library between runs. A missing file is
// seeded with the builtin routines; unreadable files are logged and replaced
// on the next save rather than blocking startup.
type routineStore struct {
	filePath string
	data     routineStoreData
	logger   *log.Logger
}

func newRoutineStore(filePath string, logger *log.Logger) *routineStore {
	if filePath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "."
		}
		filePath = filepath.Join(homeDir, ".circuit-timer", "routines.json")
	}
	s := &routineStore{
		filePath: filePath,
		logger:   logger,
	}
	s.load()
	return s
}

func (s *routineStore) getRoutines() ([]routine.Routine, int) {
	routines := make([]routine.Routine, 0, len(s.data.Routines))
	for _, r := range s.data.Routines {
		routines = append(routines, r.Clone())
	}
	return routines, s.data.Selected
}

func (s *routineStore) setRoutines(routines []routine.Routine, selected int) {
	s.data.Routines = make([]routine.Routine, 0, len(routines))
	for _, r := range routines {
		s.data.Routines = append(s.data.Routines, r.Clone())
	}
	s.data.Selected = selected
	s.save()
}

func (s *routineStore) load() {
	s.data = routineStoreData{}
	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		s.logger.Printf("RoutineStore: load %s (no existing file), seeding builtins", s.filePath)
		s.data.Routines = seedBuiltins()
		return
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		s.logger.Printf("RoutineStore: load %s failed to parse: %v", s.filePath, err)
		s.data.Routines = seedBuiltins()
		return
	}
	s.logger.Printf("RoutineStore: load %s -> %d routines", s.filePath, len(s.data.Routines))
}

func (s *routineStore) save() {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		s.logger.Printf("RoutineStore: save mkdir failed: %v", err)
		return
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		s.logger.Printf("RoutineStore: save marshal failed: %v", err)
		return
	}
	if err := os.WriteFile(s.filePath, raw, 0644); err != nil {
		s.logger.Printf("RoutineStore: save %s failed: %v", s.filePath, err)
		return
	}
	s.logger.Printf("RoutineStore: save %s -> %d routines", s.filePath, len(s.data.Routines))
}

func seedBuiltins() []routine.Routine {
	out := make([]routine.Routine, 0, len(routine.BuiltinRoutines))
	for _, r := range routine.BuiltinRoutines {
		out = append(out, r.Clone())
	}
	return out
}
