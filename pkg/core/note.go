package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UntitledPrefix is the title prefix assigned to notes saved without a title.
const UntitledPrefix = "Untitled note #"

// Note is the central entity of the domain.
// ID is the only identity; title, text and tags may collide between notes.
type Note struct {
	ID       int64
	DateTime time.Time
	Title    string
	Text     string
	Tags     string
	XP       int
}

// HasTag reports whether the comma-separated tag list contains tag (case-insensitive).
func (n Note) HasTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	for _, t := range SplitTags(n.Tags) {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// SplitTags splits a comma-separated tag string, dropping blanks.
func SplitTags(tags string) []string {
	var out []string
	for _, t := range strings.Split(tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// XPForText is the experience awarded when a note is first created.
// Edits never recompute it.
func XPForText(text string) int {
	return 5 + min(50, len(text)/20)
}

// NextUntitledTitle returns "Untitled note #N" where N is one more than the
// highest auto-numbered title among notes.
func NextUntitledTitle(notes []Note) string {
	highest := 0
	for _, n := range notes {
		if !strings.HasPrefix(n.Title, UntitledPrefix) {
			continue
		}
		suffix := n.Title[strings.LastIndex(n.Title, "#")+1:]
		if v, err := strconv.Atoi(suffix); err == nil && v > highest {
			highest = v
		}
	}
	return fmt.Sprintf("%s%d", UntitledPrefix, highest+1)
}

// ParseNoteID coerces an external reference (CLI argument, list selection) to a note id.
// Values such as "3" and "3.0" are accepted; anything else is malformed.
func ParseNoteID(ref string) (int64, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return v, v > 0
	}
	f, err := strconv.ParseFloat(ref, 64)
	if err != nil || f != float64(int64(f)) || f <= 0 {
		return 0, false
	}
	return int64(f), true
}

// Snippet flattens newlines and truncates text to at most n runes.
func Snippet(text string, n int) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	r := []rune(text)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
