package carousel

// Host is the view a carousel drives. Implementations may perform I/O; they are
// only ever called from the carousel's dispatcher goroutine.
type Host interface {
	// ApplyOffset moves the visible items by x pixels.
	ApplyOffset(x float64) error

	// SetIndex proposes a new current index and returns the index the owner
	// actually holds afterwards. The result is fed back as IndexObserved.
	SetIndex(index int) (int, error)

	// PreventScroll toggles suppression of native page scrolling.
	PreventScroll(enabled bool) error
}

// View is the visual half of a Host, used when the index lives in a Store.
type View interface {
	ApplyOffset(x float64) error
	PreventScroll(enabled bool) error
}

// HostFuncs adapts plain functions to Host. Nil fields are no-ops; a nil
// SetIndexFunc accepts the proposal unchanged.
type HostFuncs struct {
	ApplyOffsetFunc   func(x float64) error
	SetIndexFunc      func(index int) (int, error)
	PreventScrollFunc func(enabled bool) error
}

func (h HostFuncs) ApplyOffset(x float64) error {
	if h.ApplyOffsetFunc == nil {
		return nil
	}
	return h.ApplyOffsetFunc(x)
}

func (h HostFuncs) SetIndex(index int) (int, error) {
	if h.SetIndexFunc == nil {
		return index, nil
	}
	return h.SetIndexFunc(index)
}

func (h HostFuncs) PreventScroll(enabled bool) error {
	if h.PreventScrollFunc == nil {
		return nil
	}
	return h.PreventScrollFunc(enabled)
}
