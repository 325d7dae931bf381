package sconcho

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type activeEvent struct {
	key SymbolKey
	ok  bool
}

func TestSymbolTracker_ToggleOnReselect(t *testing.T) {
	assert := assert.New(t)
	tr := NewSymbolTracker()
	var events []activeEvent
	tr.OnActiveChanged(func(key SymbolKey, ok bool) { events = append(events, activeEvent{key, ok}) })

	_, ok := tr.Active()
	assert.False(ok)

	tr.Select(symYO.Key())
	key, ok := tr.Active()
	assert.True(ok)
	assert.Equal(symYO.Key(), key)

	tr.Select(symC2.Key())
	tr.Select(symC2.Key())
	_, ok = tr.Active()
	assert.False(ok)

	tr.Select(symYO.Key())
	tr.SelectNone()
	_, ok = tr.Active()
	assert.False(ok)

	assert.Equal([]activeEvent{
		{symYO.Key(), true},
		{symC2.Key(), true},
		{SymbolKey{}, false},
		{symYO.Key(), true},
		{SymbolKey{}, false},
	}, events)
}

func TestSymbolTracker_ObserversInOrder(t *testing.T) {
	tr := NewSymbolTracker()
	var order []string
	tr.OnActiveChanged(func(SymbolKey, bool) { order = append(order, "first") })
	tr.OnActiveChanged(func(SymbolKey, bool) { order = append(order, "second") })

	tr.Select(symYO.Key())
	assert.Equal(t, []string{"first", "second"}, order)
}
