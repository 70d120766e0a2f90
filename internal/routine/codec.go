package routine

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Wire format. Durations are encoded as time.ParseDuration strings ("30s",
// "1m30s") so exported files stay hand-editable while round-tripping
// losslessly.
type exerciseRecord struct {
	Name             string `json:"name"`
	IsTimeBased      bool   `json:"is_time_based"`
	Sets             int    `json:"sets"`
	ExerciseDuration string `json:"exercise_duration"`
	RestDuration     string `json:"rest_duration"`
}

type routineRecord struct {
	Name      string           `json:"name"`
	Exercises []exerciseRecord `json:"exercises"`
}

// MarshalJSON encodes the exercise in wire format.
func (s ExerciseSpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(exerciseRecord{
		Name:             s.Name,
		IsTimeBased:      s.TimeBased,
		Sets:             s.Sets,
		ExerciseDuration: s.ExerciseDuration.String(),
		RestDuration:     s.RestDuration.String(),
	})
}

// UnmarshalJSON decodes the wire format and validates the result.
func (s *ExerciseSpec) UnmarshalJSON(data []byte) error {
	var rec exerciseRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	exDur, err := parseDuration(rec.ExerciseDuration)
	if err != nil {
		return fmt.Errorf("exercise %q: bad exercise_duration: %w", rec.Name, err)
	}
	restDur, err := parseDuration(rec.RestDuration)
	if err != nil {
		return fmt.Errorf("exercise %q: bad rest_duration: %w", rec.Name, err)
	}
	out := ExerciseSpec{
		Name:             rec.Name,
		TimeBased:        rec.IsTimeBased,
		Sets:             rec.Sets,
		ExerciseDuration: exDur,
		RestDuration:     restDur,
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*s = out
	return nil
}

// parseDuration treats an absent field as zero rather than an error so that
// rep-based records may omit exercise_duration.
func parseDuration(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	return time.ParseDuration(raw)
}

// MarshalJSON encodes the routine in wire format.
func (r Routine) MarshalJSON() ([]byte, error) {
	rec := routineRecord{Name: r.Name, Exercises: make([]exerciseRecord, 0, len(r.Exercises))}
	for _, ex := range r.Exercises {
		rec.Exercises = append(rec.Exercises, exerciseRecord{
			Name:             ex.Name,
			IsTimeBased:      ex.TimeBased,
			Sets:             ex.Sets,
			ExerciseDuration: ex.ExerciseDuration.String(),
			RestDuration:     ex.RestDuration.String(),
		})
	}
	return json.Marshal(rec)
}

// UnmarshalJSON decodes and validates a routine.
func (r *Routine) UnmarshalJSON(data []byte) error {
	var rec struct {
		Name      string            `json:"name"`
		Exercises []json.RawMessage `json:"exercises"`
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	out := Routine{Name: rec.Name, Exercises: make([]ExerciseSpec, 0, len(rec.Exercises))}
	for i, raw := range rec.Exercises {
		var ex ExerciseSpec
		if err := json.Unmarshal(raw, &ex); err != nil {
			return fmt.Errorf("routine %q, exercise %d: %w", rec.Name, i, err)
		}
		out.Exercises = append(out.Exercises, ex)
	}
	*r = out
	return nil
}

// Load reads a single routine from a JSON file.
func Load(path string) (Routine, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Routine{}, err
	}
	var r Routine
	if err := json.Unmarshal(raw, &r); err != nil {
		return Routine{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return r, nil
}

// Save writes a single routine to a JSON file.
func (r Routine) Save(path string) error {
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0644)
}
