package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyStage      = "stage"
	KeyTarget     = "target"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyToken      = "token"
	KeyKind       = "kind"
	KeyName       = "name"
	KeyParent     = "parent"
	KeyCount      = "count"
	KeySuggestion = "suggestion"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Target(t string) slog.Attr       { return slog.String(KeyTarget, t) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Token(t string) slog.Attr        { return slog.String(KeyToken, t) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Name(n string) slog.Attr         { return slog.String(KeyName, n) }
func Parent(p string) slog.Attr       { return slog.String(KeyParent, p) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Suggestion(s string) slog.Attr   { return slog.String(KeySuggestion, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
