package platform

import (
	"fmt"

	"github.com/aretw0/introspection"
)

// AppState exposes the composition root for observability.
type AppState struct {
	Path       string `json:"path"`
	Started    bool   `json:"started"`
	Watching   bool   `json:"watching"`
	ReadOnly   bool   `json:"read_only"`
	AIEnabled  bool   `json:"ai_enabled"`
	Events     int    `json:"events"`
	Repairs    int    `json:"repairs"`
	LastEvent  string `json:"last_event,omitempty"`
	Scheduler  string `json:"scheduler"`
	Autosave   string `json:"autosave"`
	ConfigFile string `json:"config_file,omitempty"`
}

// State implements introspection.Introspectable.
func (a *App) State() any {
	a.mu.Lock()
	st := AppState{
		Path:       a.path,
		Started:    a.started,
		Watching:   a.started && a.watch,
		ReadOnly:   a.readOnly,
		AIEnabled:  a.assistant != nil,
		Events:     a.events,
		Repairs:    a.repairs,
		ConfigFile: a.config.File,
	}
	if a.lastEvent != nil {
		st.LastEvent = a.lastEvent.String()
	}
	a.mu.Unlock()

	st.Scheduler = fmt.Sprint(a.scheduler.State().Status)
	st.Autosave = fmt.Sprint(a.session.State().Status)
	return st
}

// ComponentType implements introspection.Component.
func (a *App) ComponentType() string {
	return "studydesk-app"
}

var _ introspection.Introspectable = (*App)(nil)
var _ introspection.Component = (*App)(nil)
