package fs

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/studydesk/pkg/core"
)

// Columns is the on-disk column order of the notes table.
var Columns = []string{"id", "datetime", "title", "text", "tags", "xp"}

// TimeLayout is the timestamp format written to the datetime column.
// It matches ISO-8601 with microseconds and no zone, as the table has always used.
const TimeLayout = "2006-01-02T15:04:05.000000"

// readLayouts are tried in order when parsing the datetime column.
var readLayouts = []string{
	TimeLayout,
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// row is a decoded line of the notes table.
// Lines whose id cannot be coerced to a positive integer are kept verbatim in
// raw so a rewrite never loses data that was edited by hand.
type row struct {
	note   core.Note
	timeOK bool
	valid  bool
	raw    map[string]string
}

type table struct {
	rows []row
}

// decodeTable parses CSV data. Columns are mapped by header name; missing
// columns and short lines are tolerated and normalized to empty values.
func decodeTable(data []byte) (*table, error) {
	t := &table{}
	if len(bytes.TrimSpace(data)) == 0 {
		return t, nil
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := index["id"]; !ok {
		return nil, errors.New("csv table missing 'id' column")
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}

		raw := make(map[string]string, len(Columns))
		for _, c := range Columns {
			if i, ok := index[c]; ok && i < len(record) {
				raw[c] = record[i]
			}
		}
		t.rows = append(t.rows, decodeRow(raw))
	}
	return t, nil
}

func decodeRow(raw map[string]string) row {
	r := row{raw: raw}
	id, ok := core.ParseNoteID(raw["id"])
	if !ok {
		return r
	}
	r.valid = true
	r.note = core.Note{
		ID:    id,
		Title: raw["title"],
		Text:  raw["text"],
		Tags:  raw["tags"],
		XP:    parseXP(raw["xp"]),
	}
	r.note.DateTime, r.timeOK = parseTime(raw["datetime"])
	return r
}

func parseXP(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) {
		return int(f)
	}
	return 0
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range readLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// encode renders the table with the canonical header.
func (t *table) encode() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Columns); err != nil {
		return nil, err
	}
	for _, r := range t.rows {
		if err := w.Write(r.record()); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r row) record() []string {
	if !r.valid {
		out := make([]string, len(Columns))
		for i, c := range Columns {
			out[i] = r.raw[c]
		}
		return out
	}
	dt := r.raw["datetime"]
	if r.timeOK {
		dt = r.note.DateTime.Format(TimeLayout)
	}
	return []string{
		strconv.FormatInt(r.note.ID, 10),
		dt,
		r.note.Title,
		r.note.Text,
		r.note.Tags,
		strconv.Itoa(r.note.XP),
	}
}

func newRow(n core.Note) row {
	return row{note: n, valid: true, timeOK: true}
}

// notes returns the valid notes in file order.
func (t *table) notes() []core.Note {
	out := make([]core.Note, 0, len(t.rows))
	for _, r := range t.rows {
		if r.valid {
			out = append(out, r.note)
		}
	}
	return out
}

// find returns the index of the row holding id, or -1.
func (t *table) find(id int64) int {
	for i, r := range t.rows {
		if r.valid && r.note.ID == id {
			return i
		}
	}
	return -1
}

func (t *table) maxID() int64 {
	var m int64
	for _, r := range t.rows {
		if r.valid && r.note.ID > m {
			m = r.note.ID
		}
	}
	return m
}

// sortNewestFirst orders notes by timestamp descending, then id descending.
// Notes with an unparseable timestamp (zero time) sort last.
func sortNewestFirst(notes []core.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		a, b := notes[i], notes[j]
		if !a.DateTime.Equal(b.DateTime) {
			return a.DateTime.After(b.DateTime)
		}
		return a.ID > b.ID
	})
}

func readTableFile(path string) (*table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeTable(data)
}
