package history

// Listener receives history notifications.
//
// OnChange is called with the intent that changed the state, or with the zero
// value of T after Clear. The OnFrozen callbacks report calls rejected while
// the history is frozen.
type Listener[T Intent] interface {
	OnChange(intent T)
	OnFrozenIntent(intent T)
	OnFrozenApply()
	OnFrozenUnapply()
}

// ListenerFuncs adapts optional callbacks to Listener.
type ListenerFuncs[T Intent] struct {
	Change        func(intent T)
	FrozenIntent  func(intent T)
	FrozenApply   func()
	FrozenUnapply func()
}

func (f ListenerFuncs[T]) OnChange(intent T) {
	if f.Change != nil {
		f.Change(intent)
	}
}

func (f ListenerFuncs[T]) OnFrozenIntent(intent T) {
	if f.FrozenIntent != nil {
		f.FrozenIntent(intent)
	}
}

func (f ListenerFuncs[T]) OnFrozenApply() {
	if f.FrozenApply != nil {
		f.FrozenApply()
	}
}

func (f ListenerFuncs[T]) OnFrozenUnapply() {
	if f.FrozenUnapply != nil {
		f.FrozenUnapply()
	}
}
