package recovery

import (
	"fmt"
	"time"

	"github.com/abhisek/smartroom/internal/mode"
)

// Kind is the taxonomy tag of an integration error.
type Kind string

const (
	SystemInitializationFailed Kind = "SYSTEM_INITIALIZATION_FAILED"
	ModeTransitionFailed       Kind = "MODE_TRANSITION_FAILED"
	SaveFailed                 Kind = "SAVE_FAILED"
	LoadFailed                 Kind = "LOAD_FAILED"
	HealthCheckFailed          Kind = "HEALTH_CHECK_FAILED"
	RenderingError             Kind = "RENDERING_ERROR"
	SimulationError            Kind = "SIMULATION_ERROR"
	AudioError                 Kind = "AUDIO_ERROR"
	GlobalError                Kind = "GLOBAL_ERROR"
	UnhandledPromiseRejection  Kind = "UNHANDLED_PROMISE_REJECTION"

	// HandlerFailed tags the result produced when a recovery handler itself
	// panics.
	HandlerFailed Kind = "HANDLER_FAILED"
)

// IntegrationError is a fault caught at a collaborator boundary.
type IntegrationError struct {
	Kind  Kind
	Cause error
	// Source names the collaborator or routine where the fault was caught.
	Source string
}

// NewError creates an IntegrationError of the given kind.
func NewError(kind Kind, source string, cause error) *IntegrationError {
	return &IntegrationError{Kind: kind, Source: source, Cause: cause}
}

func (e *IntegrationError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s in %s: %v", e.Kind, e.Source, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *IntegrationError) Unwrap() error { return e.Cause }

// Result is the structured outcome of handling an IntegrationError.
type Result struct {
	Handled           bool
	RecoveryAttempted bool
	SafeModeRequired  bool
	// UserMessage is the only text ever shown to the player. Empty means
	// nothing is shown.
	UserMessage      string
	TechnicalDetails string
	SuggestedActions []string
}

// HandlerContext describes the session at the moment an error is handled.
type HandlerContext struct {
	Mode     mode.Mode
	SafeMode bool
	At       time.Time
}

// Handler converts an IntegrationError into a Result. Handlers may act on
// their own collaborator but must always return.
type Handler func(err *IntegrationError, hc HandlerContext) Result
