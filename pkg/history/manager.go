package history

// Manager keeps a linear undo/redo stack of intents.
//
// Every call is total: undo with nothing to undo, redo at the tip and any
// mutation while frozen are silent no-ops (frozen calls are reported to the
// OnFrozen callbacks instead). Listeners are notified synchronously in
// registration order. Mutating calls made while an operation is in flight,
// from a listener or from inside an intent, are queued and run once the
// current operation has finished notifying.
//
// A Manager is not safe for concurrent use.
type Manager[T Intent] struct {
	history  []T
	position int // index of the last applied intent, -1 when none
	frozen   bool

	listeners []listenerSlot[T]
	nextSlot  int

	busy     bool
	deferred []func()
}

type listenerSlot[T Intent] struct {
	id       int
	listener Listener[T]
}

// NewManager creates an empty history.
func NewManager[T Intent]() *Manager[T] {
	return &Manager[T]{position: -1}
}

// AddListener registers l and returns a function that unregisters it.
func (m *Manager[T]) AddListener(l Listener[T]) (remove func()) {
	id := m.nextSlot
	m.nextSlot++
	m.listeners = append(m.listeners, listenerSlot[T]{id: id, listener: l})
	return func() {
		for i, s := range m.listeners {
			if s.id == id {
				m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// ApplyIntent applies intent and records it, dropping any redo entries.
// Unattached intents trigger OnChange.
func (m *Manager[T]) ApplyIntent(intent T) {
	m.run(func() {
		if m.frozen {
			m.notify(func(l Listener[T]) { l.OnFrozenIntent(intent) })
			return
		}

		clear(m.history[m.position+1:])
		m.history = m.history[:m.position+1]
		intent.Apply()
		m.position++
		m.history = append(m.history, intent)

		if !intent.Attached() {
			m.notify(func(l Listener[T]) { l.OnChange(intent) })
		}
	})
}

// Apply redoes the next operation: the next intent plus every attached intent after it.
// OnChange receives the last intent applied.
func (m *Manager[T]) Apply() {
	m.run(func() {
		if m.frozen {
			m.notify(func(l Listener[T]) { l.OnFrozenApply() })
			return
		}
		if m.position+1 >= len(m.history) {
			return
		}

		var last T
		for {
			m.position++
			last = m.history[m.position]
			last.Apply()
			if m.position+1 >= len(m.history) || !m.history[m.position+1].Attached() {
				break
			}
		}
		m.notify(func(l Listener[T]) { l.OnChange(last) })
	})
}

// Unapply undoes the current operation, walking back through attached intents
// to the one that started it. OnChange receives that first intent.
func (m *Manager[T]) Unapply() {
	m.run(func() {
		if m.frozen {
			m.notify(func(l Listener[T]) { l.OnFrozenUnapply() })
			return
		}
		if m.position < 0 {
			return
		}

		var head T
		for {
			head = m.history[m.position]
			head.Unapply()
			m.position--
			if !head.Attached() || m.position < 0 {
				break
			}
		}
		m.notify(func(l Listener[T]) { l.OnChange(head) })
	})
}

// Clear forgets every recorded intent and notifies OnChange with the zero T.
// It does nothing while frozen.
func (m *Manager[T]) Clear() {
	m.run(func() {
		if m.frozen {
			return
		}
		clear(m.history)
		m.history = m.history[:0]
		m.position = -1

		var none T
		m.notify(func(l Listener[T]) { l.OnChange(none) })
	})
}

// CanUndo reports whether Unapply would change anything.
func (m *Manager[T]) CanUndo() bool {
	return !m.frozen && m.position > -1
}

// CanRedo reports whether Apply would change anything.
func (m *Manager[T]) CanRedo() bool {
	return !m.frozen && len(m.history) > m.position+1
}

// SetFrozen toggles frozen mode. No notification is sent.
func (m *Manager[T]) SetFrozen(frozen bool) {
	m.frozen = frozen
}

// Frozen reports whether the history is frozen.
func (m *Manager[T]) Frozen() bool {
	return m.frozen
}

// Len returns the number of recorded intents, including redoable ones.
func (m *Manager[T]) Len() int {
	return len(m.history)
}

// Position returns the index of the last applied intent, or -1.
func (m *Manager[T]) Position() int {
	return m.position
}

// run executes op unless another operation is in flight, in which case op is
// queued behind it.
func (m *Manager[T]) run(op func()) {
	if m.busy {
		m.deferred = append(m.deferred, op)
		return
	}
	m.busy = true
	defer func() { m.busy = false }()

	op()
	for len(m.deferred) > 0 {
		next := m.deferred[0]
		m.deferred[0] = nil
		m.deferred = m.deferred[1:]
		next()
	}
}

func (m *Manager[T]) notify(fn func(l Listener[T])) {
	// Listeners may unsubscribe during dispatch.
	listeners := append([]listenerSlot[T](nil), m.listeners...)
	for _, s := range listeners {
		fn(s.listener)
	}
}
