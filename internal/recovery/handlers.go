package recovery

// SimulationPauser is the slice of the simulation collaborator the default
// SIMULATION_ERROR handler needs.
type SimulationPauser interface {
	Halt()
}

// Defaults holds the collaborators the default handlers act on. Nil fields
// are allowed; the matching side effect is skipped.
type Defaults struct {
	Simulation SimulationPauser
}

// RegisterDefaults installs the standard handler for every taxonomy kind.
func RegisterDefaults(r *Registry, d Defaults) {
	r.Register(SystemInitializationFailed, func(err *IntegrationError, _ HandlerContext) Result {
		return Result{
			Handled:          true,
			SafeModeRequired: true,
			UserMessage:      "Some systems failed to start. The game is running in safe mode.",
			TechnicalDetails: details(err),
			SuggestedActions: []string{"Restart the game", "Check the log file for the failing subsystem"},
		}
	})

	r.Register(ModeTransitionFailed, func(err *IntegrationError, hc HandlerContext) Result {
		return Result{
			Handled:           true,
			RecoveryAttempted: true,
			UserMessage:       "That didn't work. You're back where you were.",
			TechnicalDetails:  details(err),
			SuggestedActions:  []string{"Try switching modes again", "Save your progress"},
		}
	})

	r.Register(SaveFailed, func(err *IntegrationError, _ HandlerContext) Result {
		return Result{
			Handled:          true,
			UserMessage:      "Couldn't save your game. Your progress is still here.",
			TechnicalDetails: details(err),
			SuggestedActions: []string{"Try saving again", "Check free disk space"},
		}
	})

	r.Register(LoadFailed, func(err *IntegrationError, _ HandlerContext) Result {
		return Result{
			Handled:          true,
			UserMessage:      "Couldn't load that save. Your current game is unchanged.",
			TechnicalDetails: details(err),
			SuggestedActions: []string{"Pick a different save"},
		}
	})

	r.Register(HealthCheckFailed, func(err *IntegrationError, _ HandlerContext) Result {
		return Result{
			Handled:           true,
			RecoveryAttempted: true,
			SafeModeRequired:  true,
			UserMessage:       "A system stopped responding. Switching to safe mode.",
			TechnicalDetails:  details(err),
		}
	})

	advisory := func(msg string) Handler {
		return func(err *IntegrationError, _ HandlerContext) Result {
			return Result{
				Handled:          true,
				UserMessage:      msg,
				TechnicalDetails: details(err),
			}
		}
	}
	r.Register(RenderingError, advisory("Display glitch detected. Some effects are turned down."))
	r.Register(AudioError, advisory("Sound is unavailable right now."))

	r.Register(SimulationError, func(err *IntegrationError, _ HandlerContext) Result {
		if d.Simulation != nil {
			d.Simulation.Halt()
		}
		return Result{
			Handled:           true,
			RecoveryAttempted: d.Simulation != nil,
			SafeModeRequired:  true,
			UserMessage:       "The devices got confused. The room is paused in safe mode.",
			TechnicalDetails:  details(err),
			SuggestedActions:  []string{"Save and restart the session"},
		}
	})

	r.Register(GlobalError, func(err *IntegrationError, _ HandlerContext) Result {
		return Result{
			Handled:          true,
			TechnicalDetails: details(err),
			SuggestedActions: []string{"Report this with the log file"},
		}
	})
	r.Register(UnhandledPromiseRejection, func(err *IntegrationError, _ HandlerContext) Result {
		return Result{
			Handled:          true,
			TechnicalDetails: details(err),
		}
	})
}
