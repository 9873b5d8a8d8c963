package lifecycle

import (
	"context"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/studydesk/pkg/core"
)

type eventSource struct {
	inputs []<-chan core.Event
	filter func(core.Event) bool
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that merges core events from the note
// store watcher and the scheduler. A nil filter forwards everything.
func NewSource(filter func(core.Event) bool, inputs ...<-chan core.Event) lifecycle.Source {
	return &eventSource{
		inputs: inputs,
		filter: filter,
		out:    make(chan lifecycle.Event),
	}
}

func (s *eventSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards events until ctx is done or every input is closed; the
// output channel is closed afterwards.
func (s *eventSource) Start(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, in := range s.inputs {
		wg.Add(1)
		lifecycle.Go(ctx, func(ctx context.Context) error {
			defer wg.Done()
			return s.forward(ctx, in)
		})
	}
	lifecycle.Go(ctx, func(ctx context.Context) error {
		wg.Wait()
		close(s.out)
		return nil
	})
	return nil
}

func (s *eventSource) forward(ctx context.Context, in <-chan core.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-in:
			if !ok {
				return nil
			}
			if s.filter != nil && !s.filter(e) {
				continue
			}
			// core.Event implements lifecycle.Event (has String()).
			select {
			case s.out <- e:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
