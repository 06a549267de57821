package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyPage       = "page"
	KeySymbol     = "symbol"
	KeyCategory   = "category"
	KeyExtension  = "extension"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyStaleCount = "stale_count"
	KeyPageCount  = "page_count"
	KeyPath       = "path"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Page(id string) slog.Attr        { return slog.String(KeyPage, id) }
func Symbol(name string) slog.Attr    { return slog.String(KeySymbol, name) }
func Category(c string) slog.Attr     { return slog.String(KeyCategory, c) }
func Extension(name string) slog.Attr { return slog.String(KeyExtension, name) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func StaleCount(n int) slog.Attr      { return slog.Int(KeyStaleCount, n) }
func PageCount(n int) slog.Attr       { return slog.Int(KeyPageCount, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
