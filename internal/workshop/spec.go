package workshop

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/smartroom/internal/room"
)

// DeviceSpec is the structured description of a device to build.
type DeviceSpec struct {
	Name        string           `json:"name"`
	Kind        room.Kind        `json:"kind"`
	Personality room.Personality `json:"personality"`
}

// ErrInvalidSpec indicates a device spec failed validation.
type ErrInvalidSpec struct {
	Err error
}

func (e *ErrInvalidSpec) Error() string {
	return fmt.Sprintf("invalid device spec: %v", e.Err)
}

func (e *ErrInvalidSpec) Unwrap() error { return e.Err }

const specSchemaURL = "schema://device_spec.json"

var specSchemaDef = map[string]any{
	"type":     "object",
	"required": []any{"name", "kind", "personality"},
	"properties": map[string]any{
		"name": map[string]any{"type": "string", "minLength": 1, "maxLength": 24},
		"kind": map[string]any{"enum": kindEnum()},
		"personality": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"helpfulness":  trait(),
				"stubbornness": trait(),
				"curiosity":    trait(),
				"temper":       trait(),
			},
			"additionalProperties": false,
		},
	},
	"additionalProperties": false,
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// ParseSpec decodes and validates a JSON device spec.
func ParseSpec(raw []byte) (DeviceSpec, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return DeviceSpec{}, &ErrInvalidSpec{Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	sch, err := specSchema()
	if err != nil {
		return DeviceSpec{}, fmt.Errorf("compile device spec schema: %w", err)
	}
	if err := sch.Validate(parsed); err != nil {
		return DeviceSpec{}, &ErrInvalidSpec{Err: err}
	}

	var spec DeviceSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return DeviceSpec{}, &ErrInvalidSpec{Err: err}
	}
	return spec, nil
}

// Validate checks a spec built in code against the same rules as ParseSpec.
func (s DeviceSpec) Validate() error {
	raw, err := json.Marshal(s)
	if err != nil {
		return &ErrInvalidSpec{Err: err}
	}
	_, err = ParseSpec(raw)
	return err
}

func specSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The compiler wants a plain decoded JSON value.
		defBytes, err := json.Marshal(specSchemaDef)
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
		if err := c.AddResource(specSchemaURL, def); err != nil {
			compileErr = err
			return
		}
		compiled, compileErr = c.Compile(specSchemaURL)
	})
	return compiled, compileErr
}

func trait() map[string]any {
	return map[string]any{"type": "number", "minimum": 0, "maximum": 1}
}

func kindEnum() []any {
	kinds := room.AllKinds()
	out := make([]any, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
