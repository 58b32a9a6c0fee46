// Package format renders CLI results as strict JSON or EDN.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const (
	JSON = "json"
	EDN  = "edn"
)

// Formats lists the accepted --format values.
var Formats = []string{JSON, EDN}

// Valid reports whether name is a supported format ("" means json).
func Valid(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", JSON, EDN:
		return true
	}
	return false
}

// Write writes v in the requested format followed by a newline.
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", JSON:
		return WriteJSON(w, v, pretty)
	case EDN:
		return WriteEDN(w, v, pretty)
	default:
		return fmt.Errorf("unknown format: %s (expected %s)", format, strings.Join(Formats, "|"))
	}
}

// WriteJSON writes strict JSON. HTML characters are not escaped so messages stay readable.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
