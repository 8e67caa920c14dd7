// Package output renders maidnodectl command results in the operator's
// requested format: a borderless table for humans, JSON or YAML for
// scripting against.
package output

import (
	"fmt"
	"strings"
)

// Format selects how a command result is rendered.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat resolves an --output flag value. Empty input means table; the
// "yml" spelling of yaml is accepted.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table", "":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid output format: %q (valid: table, json, yaml)", s)
	}
}

func (f Format) String() string {
	return string(f)
}
