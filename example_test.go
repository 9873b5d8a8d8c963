package studydesk_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/studydesk"
	"github.com/aretw0/studydesk/pkg/core"
)

// Example_basic saves a note and reads the resulting stats back.
func Example_basic() {
	tmpDir, err := os.MkdirTemp("", "studydesk-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	app, err := studydesk.New(tmpDir, studydesk.WithConfig(studydesk.DefaultConfig()))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	text := "Photosynthesis turns light into chemical energy."
	id, err := app.Store().Create(ctx, "Biology", text, "science", core.XPForText(text))
	if err != nil {
		log.Fatal(err)
	}

	stats, err := app.Service().Stats(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("note %d, %d XP, %d note(s)\n", id, stats.TotalXP, stats.NotesCreated)
	// Output:
	// note 1, 7 XP, 1 note(s)
}

// Example_session shows the edit session assigning an untitled name on save.
func Example_session() {
	tmpDir, err := os.MkdirTemp("", "studydesk-session-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	app, err := studydesk.New(tmpDir, studydesk.WithConfig(studydesk.DefaultConfig()))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	s := app.Session()
	s.Edit("", "Remember the Krebs cycle.", "")
	outcome, id, err := s.Save(ctx)
	if err != nil {
		log.Fatal(err)
	}

	notes, _ := app.Store().List(ctx, 1)
	fmt.Println(outcome, id, notes[0].Title, s.Current())
	// Output:
	// created 1 Untitled note #1 EDITING(1)
}
