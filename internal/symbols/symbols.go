// Package symbols defines the symbol model and the narrow store interface
// the page tree consumes. Persistent symbol storage lives outside this
// module; MemoryStore is the reference implementation used by the CLI and
// by tests.
package symbols

// Kind classifies a symbol for per-type grouping on a formatted page.
type Kind string

const (
	KindFunction Kind = "function"
	KindMacro    Kind = "macro"
	KindConstant Kind = "constant"
	KindVariable Kind = "variable"
	KindStruct   Kind = "struct"
	KindEnum     Kind = "enum"
	KindAlias    Kind = "alias"
	KindClass    Kind = "class"
	KindOther    Kind = "other"
)

// SectionTitle returns the display caption used when grouping symbols of
// this kind on a page.
func (k Kind) SectionTitle() string {
	switch k {
	case KindFunction:
		return "Functions"
	case KindMacro:
		return "Function Macros"
	case KindConstant:
		return "Constants"
	case KindVariable:
		return "Exported Variables"
	case KindStruct:
		return "Data Structures"
	case KindEnum:
		return "Enumerations"
	case KindAlias:
		return "Aliases"
	case KindClass:
		return "Classes"
	default:
		return "Symbols"
	}
}

// Symbol is one documented code symbol.
type Symbol struct {
	UniqueName  string
	DisplayName string
	Kind        Kind
	Comment     string
	// Members lists symbol names a container symbol expands to at
	// resolution time (e.g. a class expanding to its methods).
	Members []string
}

// Store is the read surface the page tree needs.
type Store interface {
	// Get returns the symbol or nil when unknown. An unknown symbol is a
	// soft miss, not an error.
	Get(name string) *Symbol
}
