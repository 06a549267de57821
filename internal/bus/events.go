package bus

// Event names. Kept as constants so subscribers and publishers cannot drift.
const (
	EventSymbolUpdated   = "symbol-updated"
	EventCommentUpdated  = "comment-updated"
	EventSymbolsOrphaned = "symbols-orphaned"
)

// SymbolUpdated signals that a symbol's metadata changed in the symbol
// store. Pages owning the symbol must be reformatted.
type SymbolUpdated struct {
	Symbol string
}

func (SymbolUpdated) Name() string { return EventSymbolUpdated }

// CommentUpdated signals that the documentation comment attached to a
// symbol changed.
type CommentUpdated struct {
	Symbol string
}

func (CommentUpdated) Name() string { return EventCommentUpdated }

// SymbolsOrphaned reports symbols that were owned by some page in the
// previous run and by no page in the current run. The symbol store
// subscribes to prune them.
type SymbolsOrphaned struct {
	Symbols []string
}

func (SymbolsOrphaned) Name() string { return EventSymbolsOrphaned }
