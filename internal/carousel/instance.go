package carousel

import (
	"context"
	"sync"
	"sync/atomic"

	"swipeable/internal/swipe"
)

const defaultEventBuf = 256

// Instance is a running carousel: one dispatcher goroutine plus its inbox.
// Release stops the goroutine and waits for it; it is safe to call more than once.
type Instance struct {
	events chan swipe.Event
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	snap atomic.Pointer[Snapshot]

	dropped atomic.Uint64
}

// Start launches a carousel for state on host and returns the instance with
// its release func. The carousel stops when ctx ends or release is called.
func Start(ctx context.Context, state *swipe.State, host Host, opts Options) (*Instance, func()) {
	ctx, cancel := context.WithCancel(ctx)
	in := &Instance{
		events: make(chan swipe.Event, defaultEventBuf),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	snap := snapshotOf(state)
	in.snap.Store(&snap)

	observe := opts.Observe
	opts.Observe = func(s Snapshot) {
		in.snap.Store(&s)
		if observe != nil {
			observe(s)
		}
	}

	go func() {
		defer close(in.done)
		Run(ctx, in.events, state, host, opts)
	}()

	return in, in.Release
}

// Send queues ev without blocking. It reports false if the carousel has
// stopped or its inbox is full.
func (in *Instance) Send(ev swipe.Event) bool {
	select {
	case <-in.done:
		return false
	default:
	}
	select {
	case in.events <- ev:
		return true
	default:
		in.dropped.Add(1)
		return false
	}
}

// Snapshot returns the state as of the last reduced batch.
func (in *Instance) Snapshot() Snapshot {
	return *in.snap.Load()
}

// Dropped is the number of events refused because the inbox was full.
func (in *Instance) Dropped() uint64 {
	return in.dropped.Load()
}

// Done is closed once the dispatcher goroutine has exited.
func (in *Instance) Done() <-chan struct{} {
	return in.done
}

// Release stops the carousel and waits for its goroutine to exit.
func (in *Instance) Release() {
	in.once.Do(in.cancel)
	<-in.done
}
