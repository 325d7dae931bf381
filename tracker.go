package sconcho

// SymbolTracker holds the optional active symbol. Selecting the active
// symbol a second time deselects it.
type SymbolTracker struct {
	key      SymbolKey
	selected bool
	onActive []func(key SymbolKey, ok bool)
}

// NewSymbolTracker returns a tracker with no active symbol.
func NewSymbolTracker() *SymbolTracker {
	return &SymbolTracker{}
}

// Active returns the active symbol key; ok is false when none is active.
func (t *SymbolTracker) Active() (key SymbolKey, ok bool) {
	return t.key, t.selected
}

// OnActiveChanged registers fn to receive every change of the active symbol.
// Observers are called synchronously in registration order.
func (t *SymbolTracker) OnActiveChanged(fn func(key SymbolKey, ok bool)) {
	t.onActive = append(t.onActive, fn)
}

// Select activates key, or deselects it when it is already active.
func (t *SymbolTracker) Select(key SymbolKey) {
	if t.selected && t.key == key {
		t.SelectNone()
		return
	}
	t.key, t.selected = key, true
	t.emit()
}

// SelectNone clears the active symbol.
func (t *SymbolTracker) SelectNone() {
	t.key, t.selected = SymbolKey{}, false
	t.emit()
}

// restore sets the active symbol without toggling.
func (t *SymbolTracker) restore(key SymbolKey, ok bool) {
	if !ok {
		key = SymbolKey{}
	}
	t.key, t.selected = key, ok
	t.emit()
}

func (t *SymbolTracker) emit() {
	for _, fn := range t.onActive {
		fn(t.key, t.selected)
	}
}
