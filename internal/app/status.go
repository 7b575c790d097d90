package app

import (
	"time"

	"github.com/ayusman/catfence/internal/command"
	"github.com/ayusman/catfence/internal/server"
)

// Controller returns the App as seen by chat commands.
func (a *App) Controller() command.Controller {
	return commandView{a}
}

// StatusProvider returns the App as seen by the status server.
func (a *App) StatusProvider() server.StatusProvider {
	return serverView{a}
}

type commandView struct{ a *App }

func (v commandView) SetPaused(paused bool) { v.a.SetPaused(paused) }

func (v commandView) Status() command.Status {
	a := v.a
	a.mu.RLock()
	defer a.mu.RUnlock()

	return command.Status{
		Paused:    a.paused,
		State:     a.state.String(),
		Counters:  a.Counters().Snapshot(),
		LastAlert: a.lastAlert,
		Uptime:    time.Since(a.start),
	}
}

type serverView struct{ a *App }

func (v serverView) Status() server.Status {
	a := v.a
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := server.Status{
		State:           a.state.String(),
		Paused:          a.paused,
		Phase:           a.phase.String(),
		Counters:        a.Counters().Snapshot(),
		BaselineUpdates: a.baselineUpdates,
		Source:          a.config.SourceName,
	}
	if !a.lastAlert.IsZero() {
		last := a.lastAlert
		s.LastAlert = &last
	}
	return s
}
