package core

// Stats is the aggregate singleton persisted alongside the notes table.
//
// TotalXP and NotesCreated must always be recomputable from the notes table.
// LastID is the highest id ever issued so deleted ids are never handed out again.
type Stats struct {
	TotalXP      int      `json:"total_xp"`
	NotesCreated int      `json:"notes_created"`
	Badges       []string `json:"badges,omitempty"`
	LastID       int64    `json:"last_id,omitempty"`
}

// Recompute derives the aggregate counters from the current notes.
// Badges and LastID are carried over from s.
func (s Stats) Recompute(notes []Note) Stats {
	out := Stats{Badges: s.Badges, LastID: s.LastID}
	for _, n := range notes {
		out.TotalXP += n.XP
		out.NotesCreated++
		if n.ID > out.LastID {
			out.LastID = n.ID
		}
	}
	return out
}

// InSync reports whether the counters of s match other.
func (s Stats) InSync(other Stats) bool {
	return s.TotalXP == other.TotalXP && s.NotesCreated == other.NotesCreated
}

// HasBadge reports whether id has been earned.
func (s Stats) HasBadge(id string) bool {
	for _, b := range s.Badges {
		if b == id {
			return true
		}
	}
	return false
}

// DefaultLevels are the XP thresholds of each level, starting at level 0.
var DefaultLevels = []int{0, 100, 250, 500, 1000, 2000, 5000, 10000}

// LevelForXP returns the highest level whose threshold is <= xp.
func LevelForXP(xp int, thresholds []int) int {
	if len(thresholds) == 0 {
		thresholds = DefaultLevels
	}
	level := 0
	for i, t := range thresholds {
		if xp >= t {
			level = i
		}
	}
	return level
}
