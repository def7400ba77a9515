package lambda

import (
	"strings"

	"github.com/frostlake/frostlake/internal/reader"
)

// formats returns the format registry shared by handlers.
func formats() *reader.Registry {
	return reader.NewRegistry()
}

// SanitizeExecName replaces characters invalid for SFN execution names.
// Valid: a-z, A-Z, 0-9, -, _  (max 80 chars)
func SanitizeExecName(name string) string {
	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteRune(c)
		default:
			b.WriteRune('_')
		}
	}
	s := b.String()
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}

// ContentTypeFor maps a file-type tag to the upload content type.
func ContentTypeFor(fileType string) string {
	switch strings.ToLower(fileType) {
	case "csv":
		return "text/csv"
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "xls":
		return "application/vnd.ms-excel"
	case "xml":
		return "application/xml"
	case "yaml", "yml":
		return "application/x-yaml"
	case "json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
