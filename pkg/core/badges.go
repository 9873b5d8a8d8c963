package core

// Badge is an achievement earned from the aggregate stats.
type Badge struct {
	ID          string
	Name        string
	Description string
	Earned      bool
}

// BadgeChecker evaluates badge rules against a stats snapshot.
type BadgeChecker struct {
	stats  Stats
	levels []int
}

func NewBadgeChecker(stats Stats, levels []int) *BadgeChecker {
	return &BadgeChecker{stats: stats, levels: levels}
}

// Badges returns every known badge with its earned status.
func (c *BadgeChecker) Badges() []Badge {
	return []Badge{
		c.noteCountBadge("first_note", "First Note", "Create your first note", 1),
		c.noteCountBadge("note_taker", "Note Taker", "Keep 5 notes", 5),
		c.noteCountBadge("scribe", "Scribe", "Keep 10 notes", 10),
		c.noteCountBadge("archivist", "Archivist", "Keep 25 notes", 25),
		c.noteCountBadge("librarian", "Librarian", "Keep 50 notes", 50),

		c.xpBadge("xp_100", "Centurion", "Earn 100 XP", 100),
		c.xpBadge("xp_500", "Scholar", "Earn 500 XP", 500),
		c.xpBadge("xp_1000", "Sage", "Earn 1000 XP", 1000),

		c.levelBadge("level_3", "Rising Star", "Reach level 3", 3),
		c.levelBadge("level_5", "Dedicated", "Reach level 5", 5),
	}
}

// Earned returns the ids of earned badges, in rule order.
func (c *BadgeChecker) Earned() []string {
	var ids []string
	for _, b := range c.Badges() {
		if b.Earned {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

func (c *BadgeChecker) noteCountBadge(id, name, desc string, count int) Badge {
	return Badge{ID: id, Name: name, Description: desc, Earned: c.stats.NotesCreated >= count}
}

func (c *BadgeChecker) xpBadge(id, name, desc string, xp int) Badge {
	return Badge{ID: id, Name: name, Description: desc, Earned: c.stats.TotalXP >= xp}
}

func (c *BadgeChecker) levelBadge(id, name, desc string, level int) Badge {
	return Badge{ID: id, Name: name, Description: desc, Earned: LevelForXP(c.stats.TotalXP, c.levels) >= level}
}
