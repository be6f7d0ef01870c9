// Package editguard holds back automatic refreshes while the user is in the
// middle of an edit, so a poll never overwrites a half typed field.
//
// A Guard is not safe for concurrent use. The sync client only touches it
// from its owner loop.
package editguard

// State of the guard.
type State int

const (
	Idle State = iota
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "idle"
}

// Guard runs Refresh immediately while Idle and at most once, on EndEdit,
// for any number of triggers that arrived while Editing.
type Guard struct {
	// Refresh performs the deferred work. It is called synchronously.
	Refresh func()

	state   State
	pending bool
}

// New returns an Idle guard.
func New(refresh func()) *Guard {
	return &Guard{Refresh: refresh}
}

// BeginEdit enters Editing. Calling it while already editing is a no-op.
func (g *Guard) BeginEdit() {
	g.state = Editing
}

// EndEdit returns to Idle and runs one refresh if any was deferred.
func (g *Guard) EndEdit() {
	if g.state != Editing {
		return
	}
	g.state = Idle
	if g.pending {
		g.pending = false
		g.refresh()
	}
}

// SetEditing calls BeginEdit or EndEdit.
func (g *Guard) SetEditing(editing bool) {
	if editing {
		g.BeginEdit()
	} else {
		g.EndEdit()
	}
}

// Trigger asks for a refresh. It reports whether the refresh ran now.
func (g *Guard) Trigger() bool {
	if g.state == Editing {
		g.pending = true
		return false
	}
	g.refresh()
	return true
}

// Reset drops a deferred refresh without running it. The editing state is
// kept; the caller may still be inside a field.
func (g *Guard) Reset() {
	g.pending = false
}

func (g *Guard) State() State  { return g.state }
func (g *Guard) Pending() bool { return g.pending }

func (g *Guard) refresh() {
	if g.Refresh != nil {
		g.Refresh()
	}
}
