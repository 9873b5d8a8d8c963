package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapter "github.com/aretw0/studydesk/pkg/adapters/lifecycle"
	"github.com/aretw0/studydesk/pkg/core"
)

func TestSourceMergesAndFilters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	files := make(chan core.Event, 2)
	jobs := make(chan core.Event, 2)
	src := adapter.NewSource(func(e core.Event) bool { return e.Type != core.EventModify }, files, jobs)
	require.NoError(t, src.Start(ctx))

	files <- core.Event{Type: core.EventModify, ID: "notes.csv"}
	files <- core.Event{Type: core.EventDelete, ID: "stats.json"}
	jobs <- core.Event{Type: core.EventJobFired, ID: "1.0"}
	close(files)
	close(jobs)

	var got []string
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-src.Events():
			if !ok {
				assert.ElementsMatch(t, []string{"stats.json", "1.0"}, got)
				return
			}
			got = append(got, e.(core.Event).ID)
		case <-timeout:
			t.Fatalf("timeout; received %v", got)
		}
	}
}
