package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Service handles the business logic that spans the whole notes table:
// stats resync, badges, search and duplicate cleanup.
type Service struct {
	repo   NoteRepository
	levels []int

	mu         sync.RWMutex
	lastResync Stats
	resyncs    int
}

// NewService creates a new Service. A nil levels slice selects DefaultLevels.
func NewService(repo NoteRepository, levels []int) *Service {
	if len(levels) == 0 {
		levels = DefaultLevels
	}
	return &Service{repo: repo, levels: levels}
}

// Repository returns the underlying repository.
func (s *Service) Repository() NoteRepository {
	return s.repo
}

// Levels returns the XP thresholds in use.
func (s *Service) Levels() []int {
	return s.levels
}

// Stats returns the persisted stats, initializing the store first.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	if err := s.repo.EnsureInitialized(ctx); err != nil {
		return Stats{}, err
	}
	return s.repo.LoadStats(ctx)
}

// ResyncStats recomputes total_xp and notes_created from the notes table and
// overwrites the stats singleton. Badges are preserved.
func (s *Service) ResyncStats(ctx context.Context) (before, after Stats, err error) {
	if err := s.repo.EnsureInitialized(ctx); err != nil {
		return Stats{}, Stats{}, err
	}
	notes, err := s.repo.List(ctx, 0)
	if err != nil {
		return Stats{}, Stats{}, err
	}
	before, err = s.repo.LoadStats(ctx)
	if err != nil {
		if !errors.Is(err, ErrStatsCorrupt) {
			return Stats{}, Stats{}, err
		}
		// A corrupt singleton is rebuilt from the table.
		before = Stats{}
	}

	after = before.Recompute(notes)
	if err := s.repo.SaveStats(ctx, after); err != nil {
		return before, Stats{}, err
	}

	s.mu.Lock()
	s.lastResync = after
	s.resyncs++
	s.mu.Unlock()
	return before, after, nil
}

// RefreshBadges evaluates the badge rules and persists any newly earned badge.
// Badges already earned are never revoked.
func (s *Service) RefreshBadges(ctx context.Context) ([]string, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}

	var added []string
	for _, id := range NewBadgeChecker(stats, s.levels).Earned() {
		if !stats.HasBadge(id) {
			stats.Badges = append(stats.Badges, id)
			added = append(added, id)
		}
	}
	if len(added) == 0 {
		return nil, nil
	}
	if err := s.repo.SaveStats(ctx, stats); err != nil {
		return nil, err
	}
	return added, nil
}

// Search filters notes by a case-insensitive substring of title or text and,
// optionally, by tag. Results keep the newest-first order of List.
func (s *Service) Search(ctx context.Context, query, tag string, limit int) ([]Note, error) {
	notes, err := s.repo.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))

	var out []Note
	for _, n := range notes {
		if tag != "" && !n.HasTag(tag) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(n.Title), query) &&
			!strings.Contains(strings.ToLower(n.Text), query) {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// DeleteByRef deletes a note referenced by an external string id.
// Malformed references are rejected without touching storage.
func (s *Service) DeleteByRef(ctx context.Context, ref string) (bool, error) {
	id, ok := ParseNoteID(ref)
	if !ok {
		return false, nil
	}
	return s.repo.Delete(ctx, id)
}

// Dedupe removes notes whose (title, text) pair repeats an older note, keeping
// the oldest (lowest id). The table is backed up first and the stats are resynced.
func (s *Service) Dedupe(ctx context.Context) (removed []Note, backup string, err error) {
	m, ok := s.repo.(Maintainer)
	if !ok {
		return nil, "", errors.New("repository does not support maintenance")
	}
	notes, err := s.repo.List(ctx, 0)
	if err != nil {
		return nil, "", err
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].ID < notes[j].ID })

	type key struct{ title, text string }
	seen := make(map[key]bool, len(notes))
	kept := make([]Note, 0, len(notes))
	for _, n := range notes {
		k := key{n.Title, n.Text}
		if seen[k] {
			removed = append(removed, n)
			continue
		}
		seen[k] = true
		kept = append(kept, n)
	}
	if len(removed) == 0 {
		return nil, "", nil
	}

	if backup, err = m.Backup(ctx); err != nil {
		return nil, "", fmt.Errorf("backup before dedupe: %w", err)
	}
	if err := m.Replace(ctx, kept); err != nil {
		return nil, backup, err
	}
	if _, _, err := s.ResyncStats(ctx); err != nil {
		return removed, backup, err
	}
	return removed, backup, nil
}

// Clear removes every note after taking a backup, then resyncs the stats.
func (s *Service) Clear(ctx context.Context) (string, error) {
	m, ok := s.repo.(Maintainer)
	if !ok {
		return "", errors.New("repository does not support maintenance")
	}
	if err := s.repo.EnsureInitialized(ctx); err != nil {
		return "", err
	}
	backup, err := m.Backup(ctx)
	if err != nil {
		return "", fmt.Errorf("backup before clear: %w", err)
	}
	if err := m.Replace(ctx, nil); err != nil {
		return backup, err
	}
	_, _, err = s.ResyncStats(ctx)
	return backup, err
}
