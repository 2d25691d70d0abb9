package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterIntent adds delta to a shared value.
type counterIntent struct {
	name   string
	value  *int
	delta  int
	attach bool
}

func (c *counterIntent) Apply()         { *c.value += c.delta }
func (c *counterIntent) Unapply()       { *c.value -= c.delta }
func (c *counterIntent) Attached() bool { return c.attach }

// recorder captures every notification as a string.
type recorder struct {
	events []string
}

func (r *recorder) OnChange(i *counterIntent) {
	if i == nil {
		r.events = append(r.events, "change:nil")
		return
	}
	r.events = append(r.events, "change:"+i.name)
}

func (r *recorder) OnFrozenIntent(i *counterIntent) {
	r.events = append(r.events, "frozen-intent:"+i.name)
}

func (r *recorder) OnFrozenApply()   { r.events = append(r.events, "frozen-apply") }
func (r *recorder) OnFrozenUnapply() { r.events = append(r.events, "frozen-unapply") }

func newCounterManager() (*Manager[*counterIntent], *recorder, *int) {
	m := NewManager[*counterIntent]()
	rec := &recorder{}
	m.AddListener(rec)
	return m, rec, new(int)
}

func TestApplyIntentRecordsAndNotifies(t *testing.T) {
	m, rec, v := newCounterManager()

	m.ApplyIntent(&counterIntent{name: "a", value: v, delta: 1})
	m.ApplyIntent(&counterIntent{name: "b", value: v, delta: 10})

	assert.Equal(t, 11, *v)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 1, m.Position())
	assert.True(t, m.CanUndo())
	assert.False(t, m.CanRedo())
	assert.Equal(t, []string{"change:a", "change:b"}, rec.events)
}

func TestUndoRedoRoundTrip(t *testing.T) {
	m, rec, v := newCounterManager()
	m.ApplyIntent(&counterIntent{name: "a", value: v, delta: 5})
	after := *v

	m.Unapply()
	assert.Equal(t, 0, *v)
	assert.False(t, m.CanUndo())
	assert.True(t, m.CanRedo())

	m.Apply()
	assert.Equal(t, after, *v)
	assert.Equal(t, []string{"change:a", "change:a", "change:a"}, rec.events)
}

func TestInvalidCallsAreSilentNoOps(t *testing.T) {
	m, rec, v := newCounterManager()

	m.Unapply()
	m.Apply()
	assert.Equal(t, 0, *v)
	assert.Empty(t, rec.events)

	m.ApplyIntent(&counterIntent{name: "a", value: v, delta: 1})
	m.Apply()
	assert.Equal(t, 1, *v)
	assert.Equal(t, []string{"change:a"}, rec.events)
}

func TestNewIntentTruncatesRedoTail(t *testing.T) {
	m, _, v := newCounterManager()
	m.ApplyIntent(&counterIntent{name: "a", value: v, delta: 1})
	m.ApplyIntent(&counterIntent{name: "b", value: v, delta: 2})
	m.ApplyIntent(&counterIntent{name: "c", value: v, delta: 4})

	m.Unapply()
	m.Unapply()
	require.Equal(t, 1, *v)
	require.Equal(t, 3, m.Len())

	m.ApplyIntent(&counterIntent{name: "d", value: v, delta: 8})
	assert.Equal(t, 9, *v)
	assert.Equal(t, 2, m.Len())
	assert.False(t, m.CanRedo())

	m.Apply()
	assert.Equal(t, 9, *v, "redo tail was dropped")
}

func TestAttachedRunIsOneStep(t *testing.T) {
	m, rec, v := newCounterManager()
	m.ApplyIntent(&counterIntent{name: "i1", value: v, delta: 1})
	m.ApplyIntent(&counterIntent{name: "i2", value: v, delta: 2, attach: true})
	assert.Equal(t, []string{"change:i1"}, rec.events, "attached intent is silent")

	rec.events = nil
	m.Unapply()
	assert.Equal(t, 0, *v)
	assert.Equal(t, -1, m.Position())
	assert.Equal(t, []string{"change:i1"}, rec.events)

	rec.events = nil
	m.Apply()
	assert.Equal(t, 3, *v)
	assert.Equal(t, 1, m.Position())
	assert.Equal(t, []string{"change:i2"}, rec.events)
}

func TestAttachedRunsStopAtUnattachedNeighbour(t *testing.T) {
	m, _, v := newCounterManager()
	m.ApplyIntent(&counterIntent{name: "a", value: v, delta: 1})
	m.ApplyIntent(&counterIntent{name: "b", value: v, delta: 10})
	m.ApplyIntent(&counterIntent{name: "b2", value: v, delta: 100, attach: true})
	m.ApplyIntent(&counterIntent{name: "b3", value: v, delta: 1000, attach: true})
	m.ApplyIntent(&counterIntent{name: "c", value: v, delta: 10000})

	m.Unapply()
	assert.Equal(t, 1111, *v)
	m.Unapply()
	assert.Equal(t, 1, *v)
	assert.Equal(t, 0, m.Position())

	m.Apply()
	assert.Equal(t, 1111, *v)
	assert.Equal(t, 3, m.Position())
}

func TestFrozenRejectsEverything(t *testing.T) {
	m, rec, v := newCounterManager()
	m.ApplyIntent(&counterIntent{name: "a", value: v, delta: 1})
	m.ApplyIntent(&counterIntent{name: "b", value: v, delta: 2})
	m.Unapply()
	rec.events = nil

	m.SetFrozen(true)
	assert.True(t, m.Frozen())
	assert.Empty(t, rec.events, "freezing does not notify")

	m.ApplyIntent(&counterIntent{name: "x", value: v, delta: 100})
	m.Apply()
	m.Unapply()
	m.Clear()

	assert.Equal(t, 1, *v)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 0, m.Position())
	assert.False(t, m.CanUndo())
	assert.False(t, m.CanRedo())
	assert.Equal(t, []string{"frozen-intent:x", "frozen-apply", "frozen-unapply"}, rec.events)

	m.SetFrozen(false)
	assert.True(t, m.CanUndo())
	assert.True(t, m.CanRedo())
}

func TestClear(t *testing.T) {
	m, rec, v := newCounterManager()
	m.ApplyIntent(&counterIntent{name: "a", value: v, delta: 1})
	m.ApplyIntent(&counterIntent{name: "b", value: v, delta: 2})
	m.Unapply()
	rec.events = nil

	m.Clear()
	assert.False(t, m.CanUndo())
	assert.False(t, m.CanRedo())
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, []string{"change:nil"}, rec.events)
	assert.Equal(t, 1, *v, "clear does not revert state")
}

func TestListenerRemoval(t *testing.T) {
	m := NewManager[*counterIntent]()
	v := new(int)
	var first, second int
	removeFirst := m.AddListener(ListenerFuncs[*counterIntent]{Change: func(*counterIntent) { first++ }})
	m.AddListener(ListenerFuncs[*counterIntent]{Change: func(*counterIntent) { second++ }})

	m.ApplyIntent(&counterIntent{name: "a", value: v, delta: 1})
	removeFirst()
	removeFirst()
	m.ApplyIntent(&counterIntent{name: "b", value: v, delta: 1})

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestListenerReentryIsDeferred(t *testing.T) {
	m := NewManager[*counterIntent]()
	v := new(int)
	var seen []string

	m.AddListener(ListenerFuncs[*counterIntent]{
		Change: func(i *counterIntent) {
			seen = append(seen, fmt.Sprintf("%s@%d/%d", i.name, m.Position(), m.Len()))
			if i.name == "a" {
				// Runs after this dispatch completes.
				m.ApplyIntent(&counterIntent{name: "follow", value: v, delta: 10})
				assert.Equal(t, 1, *v, "reentrant call must not run mid-dispatch")
			}
		},
	})

	m.ApplyIntent(&counterIntent{name: "a", value: v, delta: 1})

	assert.Equal(t, 11, *v)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"a@0/1", "follow@1/2"}, seen)
}

func TestActionIntent(t *testing.T) {
	var calls []string
	intent := NewIntent(ActionFuncs{
		Label: "paint",
		Apply: func(first bool) {
			calls = append(calls, fmt.Sprintf("apply first=%v", first))
		},
		Unapply: func() { calls = append(calls, "unapply") },
	}, false)

	intent.Unapply()
	assert.Empty(t, calls, "unapply before apply is ignored")
	assert.True(t, intent.FirstCall())

	intent.Apply()
	intent.Unapply()
	intent.Apply()

	assert.False(t, intent.FirstCall())
	assert.False(t, intent.Attached())
	assert.Equal(t, "paint", intent.String())
	assert.Equal(t, []string{"apply first=true", "unapply", "apply first=false"}, calls)
}

func TestActionIntentThroughManager(t *testing.T) {
	m := NewManager[*ActionIntent]()
	total := 0
	add := func(n int, attach bool) *ActionIntent {
		return NewIntent(ActionFuncs{
			Apply:   func(bool) { total += n },
			Unapply: func() { total -= n },
		}, attach)
	}

	var changes []*ActionIntent
	m.AddListener(ListenerFuncs[*ActionIntent]{Change: func(i *ActionIntent) { changes = append(changes, i) }})

	head := add(1, false)
	m.ApplyIntent(head)
	m.ApplyIntent(add(2, true))
	m.Unapply()

	assert.Equal(t, 0, total)
	require.Len(t, changes, 2)
	assert.Same(t, head, changes[1], "undo is keyed to the run head")
}

func TestNewIntentPanicsOnNilAction(t *testing.T) {
	assert.Panics(t, func() { NewIntent(nil, false) })
}
