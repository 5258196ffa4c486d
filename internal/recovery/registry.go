package recovery

import (
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/abhisek/smartroom/internal/safemode"
)

// Registry maps error kinds to recovery handlers. Dispatch is synchronous:
// every error is resolved to a Result before Handle returns.
type Registry struct {
	mu        sync.RWMutex
	handlers  map[Kind]Handler
	listeners []func(*IntegrationError, Result)
	counts    map[Kind]int
	contextFn func() HandlerContext

	safe *safemode.Controller
	log  zerolog.Logger
}

// NewRegistry creates an empty registry. Results that require safe mode
// enable it on safe.
func NewRegistry(safe *safemode.Controller, log zerolog.Logger) *Registry {
	return &Registry{
		handlers: make(map[Kind]Handler),
		counts:   make(map[Kind]int),
		safe:     safe,
		log:      log.With().Str("component", "recovery").Logger(),
	}
}

// Register installs h for kind, replacing any previous handler.
func (r *Registry) Register(kind Kind, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = h
}

// HasHandler reports whether a handler is registered for kind.
func (r *Registry) HasHandler(kind Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[kind]
	return ok
}

// SetContextFunc installs the function used to describe the session to
// handlers.
func (r *Registry) SetContextFunc(fn func() HandlerContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contextFn = fn
}

// OnResult registers fn to observe every handled error, in registration order.
func (r *Registry) OnResult(fn func(*IntegrationError, Result)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Handle resolves err to a Result. It never panics.
func (r *Registry) Handle(err *IntegrationError) Result {
	if err == nil {
		err = NewError(GlobalError, "", eris.New("nil integration error"))
	}

	r.mu.Lock()
	h, ok := r.handlers[err.Kind]
	r.counts[err.Kind]++
	contextFn := r.contextFn
	listeners := append([]func(*IntegrationError, Result){}, r.listeners...)
	r.mu.Unlock()

	hc := HandlerContext{At: time.Now()}
	if contextFn != nil {
		hc = contextFn()
	}
	if r.safe != nil {
		hc.SafeMode = r.safe.IsEnabled()
	}

	var res Result
	if ok {
		res = r.invoke(h, err, hc)
	} else {
		res = defaultResult(err)
	}

	ev := r.log.Error()
	if res.Handled && !res.SafeModeRequired {
		ev = r.log.Warn()
	}
	ev.Str("kind", string(err.Kind)).
		Str("source", err.Source).
		Str("mode", string(hc.Mode)).
		Bool("recovery_attempted", res.RecoveryAttempted).
		Bool("safe_mode_required", res.SafeModeRequired).
		Str("details", res.TechnicalDetails).
		Msg("integration error handled")

	if res.SafeModeRequired && r.safe != nil {
		r.safe.Enable(string(err.Kind))
	}

	for _, fn := range listeners {
		r.notify(fn, err, res)
	}
	return res
}

// Count returns how many errors of kind have been handled.
func (r *Registry) Count(kind Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counts[kind]
}

// invoke runs h, converting a panic into a HANDLER_FAILED result.
func (r *Registry) invoke(h Handler, err *IntegrationError, hc HandlerContext) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error().
				Str("kind", string(err.Kind)).
				Interface("panic", p).
				Msg("recovery handler panicked")
			res = Result{
				Handled:          true,
				TechnicalDetails: fmt.Sprintf("%s: handler for %s panicked: %v (original: %v)", HandlerFailed, err.Kind, p, err.Cause),
			}
		}
	}()
	return h(err, hc)
}

func (r *Registry) notify(fn func(*IntegrationError, Result), err *IntegrationError, res Result) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error().Interface("panic", p).Msg("recovery listener panicked")
		}
	}()
	fn(err, res)
}

// defaultResult is used for kinds with no registered handler.
func defaultResult(err *IntegrationError) Result {
	return Result{
		Handled:          true,
		TechnicalDetails: details(err),
	}
}

func details(err *IntegrationError) string {
	if err.Cause == nil {
		return string(err.Kind)
	}
	return fmt.Sprintf("%s: %s", err.Kind, eris.ToString(err.Cause, false))
}
