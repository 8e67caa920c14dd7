package envelope

import "fmt"

// Persona names a logical role a node plays in the protocol. Envelopes
// carry both a source and a destination persona; the dispatcher pins the
// source persona for every message type it emits, and the demultiplexer
// checks the destination persona against the local façade's own role.
type Persona uint8

const (
	// PersonaMaidNode is the full read-write client façade.
	PersonaMaidNode Persona = iota
	// PersonaMaidManager is the vault-side persona that owns accounts and
	// PmidRegistration state.
	PersonaMaidManager
	// PersonaDataManager is the vault-side persona that owns immutable and
	// structured data storage for a given name.
	PersonaDataManager
	// PersonaVersionManager is the vault-side persona that owns version
	// history for structured data.
	PersonaVersionManager
	// PersonaDataGetter is the read-only client façade.
	PersonaDataGetter
	// PersonaPmidManager is the vault-side persona that owns Pmid health
	// reporting.
	PersonaPmidManager
)

func (p Persona) String() string {
	switch p {
	case PersonaMaidNode:
		return "MaidNode"
	case PersonaMaidManager:
		return "MaidManager"
	case PersonaDataManager:
		return "DataManager"
	case PersonaVersionManager:
		return "VersionManager"
	case PersonaDataGetter:
		return "DataGetter"
	case PersonaPmidManager:
		return "PmidManager"
	default:
		return fmt.Sprintf("Persona(%d)", uint8(p))
	}
}
