package orchestrator

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/abhisek/smartroom/internal/recovery"
)

// SignalKind is an environment event delivered by the host (terminal,
// window system, runtime).
type SignalKind int

const (
	SignalResize SignalKind = iota
	SignalVisibility
	SignalUnload
	SignalGlobalFault
	SignalUnhandledRejection
)

func (k SignalKind) String() string {
	switch k {
	case SignalResize:
		return "resize"
	case SignalVisibility:
		return "visibility"
	case SignalUnload:
		return "unload"
	case SignalGlobalFault:
		return "global-fault"
	case SignalUnhandledRejection:
		return "unhandled-rejection"
	default:
		return "unknown"
	}
}

// Signal is one environment event.
type Signal struct {
	Kind    SignalKind
	Width   int
	Height  int
	Visible bool
	Err     error
	// Source names where a fault came from.
	Source string
}

// unloadTimeout bounds the autosave and shutdown that follow an unload.
const unloadTimeout = 5 * time.Second

// HandleSignal translates an environment event into collaborator calls or
// an integration error.
func (e *Engine) HandleSignal(ctx context.Context, sig Signal) {
	switch sig.Kind {
	case SignalResize:
		for _, h := range e.set.All() {
			if h.Resizer == nil {
				continue
			}
			if err := guard(func() error { h.Resizer.Resize(sig.Width, sig.Height); return nil }); err != nil {
				e.registry.Handle(recovery.NewError(recovery.RenderingError, h.Name, err))
			}
		}

	case SignalVisibility:
		live := e.Mode().Live()
		for _, h := range e.set.All() {
			if h.Pauser == nil {
				continue
			}
			err := guard(func() error {
				switch {
				case !sig.Visible:
					h.Pauser.Pause()
				case live:
					h.Pauser.Resume()
				}
				return nil
			})
			if err != nil {
				e.registry.Handle(recovery.NewError(recovery.GlobalError, h.Name, err))
			}
		}
		e.log.Debug().Bool("visible", sig.Visible).Msg("visibility changed")

	case SignalUnload:
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), unloadTimeout)
		defer cancel()
		if e.saves != nil {
			// Failures are routed as SAVE_FAILED inside Save.
			_, _ = e.Save(ctx, "autosave")
		}
		if err := e.Shutdown(ctx); err != nil {
			e.log.Warn().Err(err).Msg("shutdown after unload")
		}

	case SignalGlobalFault:
		e.registry.Handle(recovery.NewError(recovery.GlobalError, sig.Source, causeOf(sig)))

	case SignalUnhandledRejection:
		e.registry.Handle(recovery.NewError(recovery.UnhandledPromiseRejection, sig.Source, causeOf(sig)))
	}
}

func causeOf(sig Signal) error {
	if sig.Err != nil {
		return sig.Err
	}
	return eris.Errorf("%s signal without error", sig.Kind)
}
