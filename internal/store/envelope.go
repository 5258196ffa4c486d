package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"

	"github.com/abhisek/smartroom/internal/gamestate"
)

// FormatVersion is the save format this build writes. Saves with the same
// major version load.
const FormatVersion = "v1.0.0"

// envelope is the serialized form of a save.
type envelope struct {
	FormatVersion string              `json:"format_version"`
	SavedAt       time.Time           `json:"saved_at"`
	State         gamestate.GameState `json:"state"`
}

type rawEnvelope struct {
	FormatVersion string          `json:"format_version"`
	State         json.RawMessage `json:"state"`
}

// newSave builds the metadata and payload for gs.
func newSave(gs gamestate.GameState, label string) (Metadata, []byte, error) {
	created := gs.Timestamp
	if created.IsZero() {
		created = time.Now()
	}
	meta := Metadata{
		ID:            uuid.NewString(),
		Label:         label,
		Mode:          gs.Mode,
		FormatVersion: FormatVersion,
		CreatedAt:     created.UTC(),
	}
	payload, err := json.Marshal(envelope{FormatVersion: FormatVersion, SavedAt: meta.CreatedAt, State: gs})
	if err != nil {
		return Metadata{}, nil, fmt.Errorf("marshal save: %w", err)
	}
	return meta, payload, nil
}

// decodeSave checks the format version, validates payload against the save
// schema and decodes the state.
func decodeSave(payload []byte) (gamestate.GameState, error) {
	var raw rawEnvelope
	if err := json.Unmarshal(payload, &raw); err != nil {
		return gamestate.GameState{}, &ErrInvalidSave{Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if !semver.IsValid(raw.FormatVersion) {
		return gamestate.GameState{}, &ErrInvalidSave{Err: fmt.Errorf("bad format version %q", raw.FormatVersion)}
	}
	if semver.Major(raw.FormatVersion) != semver.Major(FormatVersion) {
		return gamestate.GameState{}, &ErrIncompatibleSave{Version: raw.FormatVersion, Want: FormatVersion}
	}

	var parsed any
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return gamestate.GameState{}, &ErrInvalidSave{Err: err}
	}
	sch, err := saveSchema()
	if err != nil {
		return gamestate.GameState{}, fmt.Errorf("compile save schema: %w", err)
	}
	if err := sch.Validate(parsed); err != nil {
		return gamestate.GameState{}, &ErrInvalidSave{Err: err}
	}

	var gs gamestate.GameState
	if err := json.Unmarshal(raw.State, &gs); err != nil {
		return gamestate.GameState{}, &ErrInvalidSave{Err: err}
	}
	return gs, nil
}

const saveSchemaURL = "schema://save.json"

var saveSchemaDef = map[string]any{
	"type":     "object",
	"required": []any{"format_version", "state"},
	"properties": map[string]any{
		"format_version": map[string]any{"type": "string"},
		"saved_at":       map[string]any{"type": "string"},
		"state": map[string]any{
			"type":     "object",
			"required": []any{"mode", "environment", "settings", "timestamp"},
			"properties": map[string]any{
				"mode":              map[string]any{"type": "string", "minLength": 1},
				"devices":           map[string]any{"type": []any{"array", "null"}, "items": deviceSchema()},
				"environment":       environmentSchema(),
				"tutorial_progress": map[string]any{"type": "object"},
				"scenario_progress": map[string]any{"type": "object"},
				"achievements":      map[string]any{"type": []any{"array", "null"}},
				"settings":          map[string]any{"type": "object"},
				"timestamp":         map[string]any{"type": "string"},
			},
		},
	},
}

func deviceSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"id", "name", "kind"},
		"properties": map[string]any{
			"id":   map[string]any{"type": "string", "minLength": 1},
			"name": map[string]any{"type": "string"},
			"kind": map[string]any{"type": "string"},
		},
	}
}

func environmentSchema() map[string]any {
	unit := map[string]any{"type": "number", "minimum": 0, "maximum": 1}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"temperature": map[string]any{"type": "number"},
			"noise":       unit,
			"light":       unit,
			"tension":     unit,
		},
	}
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func saveSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		defBytes, err := json.Marshal(saveSchemaDef)
		if err != nil {
			compileErr = err
			return
		}
		var def any
		if err := json.Unmarshal(defBytes, &def); err != nil {
			compileErr = err
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(saveSchemaURL, def); err != nil {
			compileErr = err
			return
		}
		compiled, compileErr = c.Compile(saveSchemaURL)
	})
	return compiled, compileErr
}
