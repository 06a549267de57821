package tree

// Resolution is a placeholder resolver's claim over a sitemap entry.
//
// Exactly one of the following shapes is meaningful:
//   - Generated true: the extension synthesizes the page entirely, no
//     file backs it.
//   - Path non-empty: the entry redirects to a different underlying file,
//     owned by Extension.
type Resolution struct {
	Generated bool
	Path      string
	Extension string // owning extension, "" means core
}

// PlaceholderResolver lets an extension claim a branch of the navigation
// tree without the tree builder knowing the mechanism.
type PlaceholderResolver interface {
	// Resolve returns the claim for id, or ok=false when this resolver
	// does not handle the identifier (it is then treated as a literal
	// file to locate and parse).
	Resolve(id string, includePaths []string) (Resolution, bool)
}

// RegisterPlaceholderResolver appends a resolver. Resolvers are consulted
// in registration order; the first claim wins.
func (t *Tree) RegisterPlaceholderResolver(r PlaceholderResolver) {
	if r != nil {
		t.resolvers = append(t.resolvers, r)
	}
}

func (t *Tree) resolvePlaceholder(id string) (Resolution, bool) {
	for _, r := range t.resolvers {
		if res, ok := r.Resolve(id, t.includePaths); ok {
			return res, true
		}
	}
	return Resolution{}, false
}
