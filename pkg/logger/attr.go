package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// AdminID records the admin account identifier under the key "admin_id".
func AdminID(id int64) slog.Attr {
	return slog.Int64("admin_id", id)
}

// TenantID records the shop identifier under the key "tenant_id".
func TenantID(id int64) slog.Attr {
	return slog.Int64("tenant_id", id)
}

// Subdomain records the shop subdomain under the key "subdomain".
func Subdomain(s string) slog.Attr {
	return slog.String("subdomain", s)
}
