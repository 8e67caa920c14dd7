package output

import (
	"encoding/json"
	"io"
)

// PrintJSON writes data as indented JSON to w.
func PrintJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
