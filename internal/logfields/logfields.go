package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRequestID  = "request_id"
	KeyFile       = "file"
	KeyOp         = "op"
	KeyScheme     = "scheme"
	KeySearchKey  = "search_key"
	KeyMode       = "mode"
	KeyVault      = "vault"
	KeyDurationMS = "duration_ms"
	KeyBlocks     = "blocks"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RequestID(id string) slog.Attr    { return slog.String(KeyRequestID, id) }
func File(path string) slog.Attr       { return slog.String(KeyFile, path) }
func Op(op string) slog.Attr           { return slog.String(KeyOp, op) }
func Scheme(s string) slog.Attr        { return slog.String(KeyScheme, s) }
func SearchKey(k string) slog.Attr     { return slog.String(KeySearchKey, k) }
func Mode(m string) slog.Attr          { return slog.String(KeyMode, m) }
func Vault(root string) slog.Attr      { return slog.String(KeyVault, root) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Blocks(n int) slog.Attr           { return slog.Int(KeyBlocks, n) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
