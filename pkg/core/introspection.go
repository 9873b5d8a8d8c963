package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	RepositoryType string `json:"repository_type"`
	Levels         []int  `json:"levels"`
	Resyncs        int    `json:"resyncs"`
	LastTotalXP    int    `json:"last_total_xp"`
	LastNoteCount  int    `json:"last_note_count"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	repoType := "unknown"
	if s.repo != nil {
		repoType = "repository"
		if comp, ok := s.repo.(introspection.Component); ok {
			repoType = comp.ComponentType()
		}
	}

	return ServiceState{
		RepositoryType: repoType,
		Levels:         s.levels,
		Resyncs:        s.resyncs,
		LastTotalXP:    s.lastResync.TotalXP,
		LastNoteCount:  s.lastResync.NotesCreated,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
