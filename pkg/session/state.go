package session

import "fmt"

// Mode is the identity of the note shown in the editor.
type Mode int

const (
	// ModeNew means no stored note is loaded; a save creates one.
	ModeNew Mode = iota
	// ModeEditing means note State.NoteID is loaded; a save updates it.
	ModeEditing
	// ModePendingDelete means a delete of State.NoteID awaits confirmation.
	// Nothing is saved in this mode.
	ModePendingDelete
)

func (m Mode) String() string {
	switch m {
	case ModeNew:
		return "NEW"
	case ModeEditing:
		return "EDITING"
	case ModePendingDelete:
		return "PENDING_DELETE"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// State is the tagged editor identity. NoteID is zero in ModeNew.
type State struct {
	Mode   Mode
	NoteID int64
}

func (s State) String() string {
	if s.Mode == ModeNew {
		return s.Mode.String()
	}
	return fmt.Sprintf("%s(%d)", s.Mode, s.NoteID)
}

func newState() State              { return State{Mode: ModeNew} }
func editing(id int64) State       { return State{Mode: ModeEditing, NoteID: id} }
func pendingDelete(id int64) State { return State{Mode: ModePendingDelete, NoteID: id} }

// Outcome describes what a save did.
type Outcome string

const (
	// OutcomeSkipped means nothing was written.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeCreated means a new note was created from NEW mode.
	OutcomeCreated Outcome = "created"
	// OutcomeUpdated means the loaded note was updated in place.
	OutcomeUpdated Outcome = "updated"
	// OutcomeRecreated means the loaded note had vanished and was created again under a new id.
	OutcomeRecreated Outcome = "recreated"
)
