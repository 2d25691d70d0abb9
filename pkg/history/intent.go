// Package history records reversible edits and walks them for undo and redo.
package history

import "fmt"

// Intent is a reversible edit.
//
// Attached reports whether the intent continues the same logical operation
// as the intent recorded just before it. A run made of one unattached intent
// followed by attached intents is undone and redone as a unit.
type Intent interface {
	Apply()
	Unapply()
	Attached() bool
}

// Action is the body of an ActionIntent.
// ApplyAction receives first=true on the initial application and false on every redo.
type Action interface {
	ApplyAction(first bool)
	UnapplyAction()
}

// ActionFuncs adapts a pair of functions to Action.
type ActionFuncs struct {
	Label   string
	Apply   func(first bool)
	Unapply func()
}

// ApplyAction calls Apply.
func (f ActionFuncs) ApplyAction(first bool) {
	if f.Apply != nil {
		f.Apply(first)
	}
}

// UnapplyAction calls Unapply.
func (f ActionFuncs) UnapplyAction() {
	if f.Unapply != nil {
		f.Unapply()
	}
}

// String returns the label.
func (f ActionFuncs) String() string {
	return f.Label
}

// ActionIntent wraps an Action and tracks whether it has been applied yet.
type ActionIntent struct {
	action    Action
	attach    bool
	firstCall bool
	applied   bool
}

// NewIntent creates an intent around action. It panics if action is nil.
func NewIntent(action Action, attach bool) *ActionIntent {
	if action == nil {
		panic("history: nil action")
	}
	return &ActionIntent{
		action:    action,
		attach:    attach,
		firstCall: true,
	}
}

// Apply runs the action.
func (i *ActionIntent) Apply() {
	i.action.ApplyAction(i.firstCall)
	i.firstCall = false
	i.applied = true
}

// Unapply reverts the action. It does nothing before the first Apply.
func (i *ActionIntent) Unapply() {
	if !i.applied {
		return
	}
	i.action.UnapplyAction()
	i.applied = false
}

// Attached reports whether the intent joins the previous one.
func (i *ActionIntent) Attached() bool {
	return i.attach
}

// FirstCall reports whether the intent has never been applied.
func (i *ActionIntent) FirstCall() bool {
	return i.firstCall
}

// Action returns the wrapped action.
func (i *ActionIntent) Action() Action {
	return i.action
}

// String describes the wrapped action.
func (i *ActionIntent) String() string {
	if s, ok := i.action.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", i.action)
}
