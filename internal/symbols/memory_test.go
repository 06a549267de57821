package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MathieuDuponchelle/better-doctool/internal/bus"
)

func TestGetUnknownIsNil(t *testing.T) {
	s := NewMemoryStore(nil)
	assert.Nil(t, s.Get("nope"))
}

func TestUpdateNotifies(t *testing.T) {
	events := bus.New()
	var notified []string
	events.Subscribe(bus.EventSymbolUpdated, func(e bus.Event) error {
		notified = append(notified, e.(bus.SymbolUpdated).Symbol)
		return nil
	})

	s := NewMemoryStore(events)
	require.NoError(t, s.Update(&Symbol{UniqueName: "foo", Kind: KindFunction}))
	assert.Equal(t, []string{"foo"}, notified)
	assert.NotNil(t, s.Get("foo"))
}

func TestOrphanPruning(t *testing.T) {
	events := bus.New()
	s := NewMemoryStore(events)
	s.Add(&Symbol{UniqueName: "gone", Kind: KindStruct})
	s.Add(&Symbol{UniqueName: "kept", Kind: KindStruct})

	require.NoError(t, events.Publish(bus.SymbolsOrphaned{Symbols: []string{"gone", "never-existed"}}))
	assert.Nil(t, s.Get("gone"))
	assert.NotNil(t, s.Get("kept"))
}

func TestSectionTitles(t *testing.T) {
	assert.Equal(t, "Functions", KindFunction.SectionTitle())
	assert.Equal(t, "Data Structures", KindStruct.SectionTitle())
	assert.Equal(t, "Symbols", Kind("bogus").SectionTitle())
}
