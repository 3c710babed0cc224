package swipe

import "fmt"

// ==============================
// Commands (side effects)
// ==============================

// Command is an effect the reducer asks the hosting view to perform.
type Command interface {
	commandMarker()
	String() string
}

// CmdApplyOffset sets the visible horizontal offset in pixels.
type CmdApplyOffset struct {
	X float64
}

func (CmdApplyOffset) commandMarker() {}
func (c CmdApplyOffset) String() string {
	return fmt.Sprintf("CmdApplyOffset(x=%.3f)", c.X)
}

// CmdSetIndex proposes a new carousel index to the external store.
type CmdSetIndex struct {
	Index int
}

func (CmdSetIndex) commandMarker()   {}
func (c CmdSetIndex) String() string { return fmt.Sprintf("CmdSetIndex(index=%d)", c.Index) }

// CmdPreventScroll toggles suppression of native page scrolling.
type CmdPreventScroll struct {
	Enabled bool
}

func (CmdPreventScroll) commandMarker() {}
func (c CmdPreventScroll) String() string {
	return fmt.Sprintf("CmdPreventScroll(enabled=%v)", c.Enabled)
}

// CmdRequestFrame asks for one FrameTick carrying Generation on the next refresh.
type CmdRequestFrame struct {
	Generation uint64
}

func (CmdRequestFrame) commandMarker() {}
func (c CmdRequestFrame) String() string {
	return fmt.Sprintf("CmdRequestFrame(generation=%d)", c.Generation)
}
