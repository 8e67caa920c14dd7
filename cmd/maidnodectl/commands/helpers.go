package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/marmos91/maidnode/internal/cli/output"
	"github.com/marmos91/maidnode/pkg/config"
	"github.com/marmos91/maidnode/pkg/ids"
	"github.com/marmos91/maidnode/pkg/payload"
)

// renderable is satisfied by every operation-result type printed here;
// it is output.TableRenderer plus the JSON/YAML tags attached to the same
// struct fields.
type renderable interface {
	Headers() []string
	Rows() [][]string
}

// printResult renders result in the user's requested --output format.
func printResult(format output.Format, result renderable) error {
	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, result)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, result)
	default:
		return output.PrintTable(os.Stdout, result)
	}
}

// loadConfig loads the effective maidnodectl configuration from the
// --config flag, falling back to the default location.
func loadConfig() (*config.Config, error) {
	return config.MustLoad(GetConfigFile())
}

// parseDataName builds a payload.DataName from a data-tag name (immutable,
// structured, passport, pmid) and a hex-encoded content address.
func parseDataName(tag, hexName string) (payload.DataName, error) {
	rawName, err := ids.ParseIdentity(hexName)
	if err != nil {
		return payload.DataName{}, fmt.Errorf("invalid name: %w", err)
	}
	var tagValue ids.DataTagValue
	switch tag {
	case "immutable":
		tagValue = ids.DataTagImmutable
	case "structured":
		tagValue = ids.DataTagStructured
	case "passport":
		tagValue = ids.DataTagPassport
	case "pmid":
		tagValue = ids.DataTagPmid
	default:
		return payload.DataName{}, fmt.Errorf("invalid --tag %q (want immutable|structured|passport|pmid)", tag)
	}
	return payload.DataName{Type: uint32(tagValue), RawName: rawName}, nil
}

// parseVersion builds a payload.Version from a hex-encoded identity and an
// index.
func parseVersion(hexID string, index uint64) (payload.Version, error) {
	id, err := ids.ParseIdentity(hexID)
	if err != nil {
		return payload.Version{}, fmt.Errorf("invalid version id: %w", err)
	}
	return payload.Version{ID: id, Index: index}, nil
}

// parseIdentity is a thin wrapper over ids.ParseIdentity with a field-aware
// error message for flag parsing.
func parseIdentity(field, hexValue string) (ids.Identity, error) {
	id, err := ids.ParseIdentity(hexValue)
	if err != nil {
		return ids.Identity{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return id, nil
}

// opMessage is the printable shape of a fire-and-forget or acknowledgement-
// only operation's result (Put, Delete, PutVersion, account/Pmid lifecycle).
type opMessage struct {
	Status  string `json:"status" yaml:"status"`
	Message string `json:"message" yaml:"message"`
}

func (m opMessage) Headers() []string { return []string{"STATUS", "MESSAGE"} }
func (m opMessage) Rows() [][]string  { return [][]string{{m.Status, m.Message}} }

func ok(message string) opMessage {
	return opMessage{Status: "ok", Message: message}
}

// readAllStdin reads the full content of stdin, for put's default content
// source when --file is not given.
func readAllStdin() ([]byte, error) {
	return io.ReadAll(os.Stdin)
}
