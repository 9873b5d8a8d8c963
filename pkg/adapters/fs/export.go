package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/studydesk/pkg/core"
)

// ErrInvalidDateTime is returned by UnmarshalMarkdown, together with the
// otherwise complete note, when the frontmatter datetime can not be parsed.
var ErrInvalidDateTime = errors.New("invalid frontmatter datetime")

// frontmatter is the YAML header of an exported note.
type frontmatter struct {
	ID       int64    `yaml:"id,omitempty"`
	Title    string   `yaml:"title"`
	Tags     []string `yaml:"tags,omitempty"`
	XP       int      `yaml:"xp,omitempty"`
	DateTime string   `yaml:"datetime,omitempty"`
}

// MarshalMarkdown renders a note as Markdown with a YAML frontmatter block.
func MarshalMarkdown(n core.Note) ([]byte, error) {
	fm := frontmatter{
		ID:    n.ID,
		Title: n.Title,
		Tags:  core.SplitTags(n.Tags),
		XP:    n.XP,
	}
	if !n.DateTime.IsZero() {
		fm.DateTime = n.DateTime.Format(time.RFC3339)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(fm); err != nil {
		return nil, err
	}
	encoder.Close()
	buf.WriteString("---\n")
	buf.WriteString(n.Text)
	if !strings.HasSuffix(n.Text, "\n") {
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// UnmarshalMarkdown parses a Markdown file. Without frontmatter the whole
// file is the text and the title is left empty.
func UnmarshalMarkdown(r io.Reader) (core.Note, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return core.Note{}, err
	}

	if !bytes.HasPrefix(data, []byte("---\n")) && !bytes.HasPrefix(data, []byte("---\r\n")) {
		return core.Note{Text: strings.TrimSpace(string(data))}, nil
	}

	rest := data[3:]
	parts := bytes.SplitN(rest, []byte("\n---"), 2)
	if len(parts) == 1 {
		return core.Note{}, errors.New("frontmatter started but no closing delimiter found")
	}

	var fm frontmatter
	if err := yaml.Unmarshal(parts[0], &fm); err != nil {
		return core.Note{}, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	n := core.Note{
		ID:    fm.ID,
		Title: fm.Title,
		Tags:  strings.Join(fm.Tags, ","),
		XP:    fm.XP,
		Text:  strings.TrimSpace(strings.TrimPrefix(string(parts[1]), "\r")),
	}
	if fm.DateTime != "" {
		t, err := time.Parse(time.RFC3339, fm.DateTime)
		if err != nil {
			var ok bool
			if t, ok = parseTime(fm.DateTime); !ok {
				return n, fmt.Errorf("%w: %q", ErrInvalidDateTime, fm.DateTime)
			}
		}
		n.DateTime = t
	}
	return n, nil
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a title into a file-name friendly fragment.
func Slug(title string) string {
	s := strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(s) > 48 {
		s = strings.TrimRight(s[:48], "-")
	}
	if s == "" {
		s = "note"
	}
	return s
}

// ExportMarkdown writes every note whose title matches titlePattern (a
// doublestar glob, empty for all) to dir as "<id>-<slug>.md".
// It returns the written paths.
func (r *Repository) ExportMarkdown(ctx context.Context, dir, titlePattern string) ([]string, error) {
	if titlePattern != "" && !doublestar.ValidatePattern(titlePattern) {
		return nil, fmt.Errorf("invalid title pattern: %q", titlePattern)
	}
	notes, err := r.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	var paths []string
	for _, n := range notes {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		if titlePattern != "" {
			if ok, _ := doublestar.Match(titlePattern, n.Title); !ok {
				continue
			}
		}
		data, err := MarshalMarkdown(n)
		if err != nil {
			return paths, fmt.Errorf("failed to render note %d: %w", n.ID, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("%d-%s.md", n.ID, Slug(n.Title)))
		if err := writeFileAtomic(path, data, 0644); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	r.config.Logger.Debug("notes exported", "dir", dir, "count", len(paths))
	return paths, nil
}

// ImportMarkdown creates one note per Markdown file. Ids and xp in the
// frontmatter are ignored: every imported note is a new note and earns xp
// for its text. Files without text are skipped.
func (r *Repository) ImportMarkdown(ctx context.Context, files ...string) ([]int64, error) {
	var ids []int64
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return ids, fmt.Errorf("failed to open %s: %w", path, err)
		}
		n, err := UnmarshalMarkdown(f)
		f.Close()
		if errors.Is(err, ErrInvalidDateTime) {
			// Imported notes are stamped with the current time anyway.
			r.config.Logger.Warn("ignoring bad datetime in import", "path", path, "error", err)
		} else if err != nil {
			return ids, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if n.Text == "" {
			r.config.Logger.Debug("skipping empty import", "path", path)
			continue
		}
		if n.Title == "" {
			n.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		id, err := r.Create(ctx, n.Title, n.Text, n.Tags, core.XPForText(n.Text))
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
