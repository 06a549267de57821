package symbols

import (
	"log/slog"
	"sort"

	"github.com/MathieuDuponchelle/better-doctool/internal/bus"
	"github.com/MathieuDuponchelle/better-doctool/internal/logfields"
)

// MemoryStore is an in-memory Store. Updates publish change notifications
// on the tree's bus; orphan notifications prune dead entries.
type MemoryStore struct {
	symbols map[string]*Symbol
	events  *bus.Bus
	logger  *slog.Logger
}

// NewMemoryStore creates an empty store wired to the given bus. A nil bus
// disables notifications.
func NewMemoryStore(events *bus.Bus) *MemoryStore {
	s := &MemoryStore{
		symbols: map[string]*Symbol{},
		events:  events,
		logger:  slog.Default(),
	}
	if events != nil {
		events.Subscribe(bus.EventSymbolsOrphaned, s.onOrphaned)
	}
	return s
}

// WithLogger sets a custom logger.
func (s *MemoryStore) WithLogger(logger *slog.Logger) *MemoryStore {
	s.logger = logger
	return s
}

// Get implements Store.
func (s *MemoryStore) Get(name string) *Symbol {
	return s.symbols[name]
}

// Add registers a symbol without emitting a notification. Used when
// seeding the store before a run.
func (s *MemoryStore) Add(sym *Symbol) {
	s.symbols[sym.UniqueName] = sym
}

// Update replaces a symbol and notifies subscribers so owning pages can
// be marked stale outside the main build pass.
func (s *MemoryStore) Update(sym *Symbol) error {
	s.symbols[sym.UniqueName] = sym
	if s.events == nil {
		return nil
	}
	return s.events.Publish(bus.SymbolUpdated{Symbol: sym.UniqueName})
}

// UpdateComment replaces a symbol's comment and notifies subscribers.
func (s *MemoryStore) UpdateComment(name, comment string) error {
	if sym, ok := s.symbols[name]; ok {
		sym.Comment = comment
	}
	if s.events == nil {
		return nil
	}
	return s.events.Publish(bus.CommentUpdated{Symbol: name})
}

// Names returns all known symbol names, sorted.
func (s *MemoryStore) Names() []string {
	out := make([]string, 0, len(s.symbols))
	for name := range s.symbols {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *MemoryStore) onOrphaned(e bus.Event) error {
	orphaned, ok := e.(bus.SymbolsOrphaned)
	if !ok {
		return nil
	}
	for _, name := range orphaned.Symbols {
		if _, known := s.symbols[name]; known {
			delete(s.symbols, name)
			s.logger.Debug("Pruned orphaned symbol", logfields.Symbol(name))
		}
	}
	return nil
}
