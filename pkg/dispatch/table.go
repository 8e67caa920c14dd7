package dispatch

import (
	"fmt"

	"github.com/marmos91/maidnode/pkg/envelope"
)

// destKind fixes how a message type's destination Receiver is computed:
// data-keyed operations address the group around the
// data name's raw address; account-shaped operations address the
// MaidManager group around the signing identity's own node; PmidHealth
// addresses the PmidManager group around the target Pmid's own address.
type destKind uint8

const (
	destData destKind = iota
	destMaidManagerGroup
	destPmidManagerGroup
)

// messageType is one row of the fixed message-kind table: for each action,
// the personas allowed to send it, the vault persona it addresses, and how
// its receiver group is derived. The package's init() walks the whole table
// and panics on any internally inconsistent entry, so a bad edit here dies
// at startup rather than on the first dispatch.
type messageType struct {
	action         envelope.Action
	allowedSources []envelope.Persona
	destPersona    envelope.Persona
	dest           destKind
}

// vaultPersonas is the set of personas a message type may legitimately be
// addressed to; a table entry naming anything outside this set (e.g.
// accidentally pointing at MaidNode or DataGetter) is a programming error
// caught at package init.
var vaultPersonas = map[envelope.Persona]bool{
	envelope.PersonaMaidManager:    true,
	envelope.PersonaDataManager:    true,
	envelope.PersonaVersionManager: true,
	envelope.PersonaPmidManager:    true,
}

// facadePersonas is the set of personas a client façade may legitimately
// claim as the source of an outbound message.
var facadePersonas = map[envelope.Persona]bool{
	envelope.PersonaMaidNode:   true,
	envelope.PersonaDataGetter: true,
}

var messageTable = map[envelope.Action]messageType{
	envelope.ActionGet: {
		action:         envelope.ActionGet,
		allowedSources: []envelope.Persona{envelope.PersonaMaidNode, envelope.PersonaDataGetter},
		destPersona:    envelope.PersonaDataManager,
		dest:           destData,
	},
	envelope.ActionPut: {
		action:         envelope.ActionPut,
		allowedSources: []envelope.Persona{envelope.PersonaMaidNode},
		destPersona:    envelope.PersonaMaidManager,
		dest:           destMaidManagerGroup,
	},
	envelope.ActionDelete: {
		action:         envelope.ActionDelete,
		allowedSources: []envelope.Persona{envelope.PersonaMaidNode},
		destPersona:    envelope.PersonaMaidManager,
		dest:           destMaidManagerGroup,
	},
	envelope.ActionGetVersions: {
		action:         envelope.ActionGetVersions,
		allowedSources: []envelope.Persona{envelope.PersonaMaidNode, envelope.PersonaDataGetter},
		destPersona:    envelope.PersonaVersionManager,
		dest:           destData,
	},
	envelope.ActionGetBranch: {
		action:         envelope.ActionGetBranch,
		allowedSources: []envelope.Persona{envelope.PersonaMaidNode, envelope.PersonaDataGetter},
		destPersona:    envelope.PersonaVersionManager,
		dest:           destData,
	},
	envelope.ActionPutVersion: {
		action:         envelope.ActionPutVersion,
		allowedSources: []envelope.Persona{envelope.PersonaMaidNode},
		destPersona:    envelope.PersonaMaidManager,
		dest:           destMaidManagerGroup,
	},
	envelope.ActionDeleteBranchUntilFork: {
		action:         envelope.ActionDeleteBranchUntilFork,
		allowedSources: []envelope.Persona{envelope.PersonaMaidNode},
		destPersona:    envelope.PersonaMaidManager,
		dest:           destMaidManagerGroup,
	},
	envelope.ActionCreateAccount: {
		action:         envelope.ActionCreateAccount,
		allowedSources: []envelope.Persona{envelope.PersonaMaidNode},
		destPersona:    envelope.PersonaMaidManager,
		dest:           destMaidManagerGroup,
	},
	envelope.ActionRemoveAccount: {
		action:         envelope.ActionRemoveAccount,
		allowedSources: []envelope.Persona{envelope.PersonaMaidNode},
		destPersona:    envelope.PersonaMaidManager,
		dest:           destMaidManagerGroup,
	},
	envelope.ActionRegisterPmid: {
		action:         envelope.ActionRegisterPmid,
		allowedSources: []envelope.Persona{envelope.PersonaMaidNode},
		destPersona:    envelope.PersonaMaidManager,
		dest:           destMaidManagerGroup,
	},
	envelope.ActionUnregisterPmid: {
		action:         envelope.ActionUnregisterPmid,
		allowedSources: []envelope.Persona{envelope.PersonaMaidNode},
		destPersona:    envelope.PersonaMaidManager,
		dest:           destMaidManagerGroup,
	},
	envelope.ActionGetPmidHealth: {
		action:         envelope.ActionGetPmidHealth,
		allowedSources: []envelope.Persona{envelope.PersonaMaidNode},
		destPersona:    envelope.PersonaPmidManager,
		dest:           destPmidManagerGroup,
	},
	envelope.ActionFetchIdentity: {
		action:         envelope.ActionFetchIdentity,
		allowedSources: []envelope.Persona{envelope.PersonaMaidNode, envelope.PersonaDataGetter},
		destPersona:    envelope.PersonaDataManager,
		dest:           destData,
	},
}

func init() {
	for action, mt := range messageTable {
		if action != mt.action {
			panic(fmt.Sprintf("dispatch: table key %s does not match entry action %s", action, mt.action))
		}
		if len(mt.allowedSources) == 0 {
			panic(fmt.Sprintf("dispatch: %s declares no allowed source persona", action))
		}
		for _, p := range mt.allowedSources {
			if !facadePersonas[p] {
				panic(fmt.Sprintf("dispatch: %s declares non-façade source persona %s", action, p))
			}
		}
		if !vaultPersonas[mt.destPersona] {
			panic(fmt.Sprintf("dispatch: %s declares non-vault destination persona %s", action, mt.destPersona))
		}
	}
}

// checkSourcePersonaType verifies that persona is an allowed source for
// action. Dispatching a payload with a non-matching source persona is a
// programmer error, not a runtime condition, so it aborts.
func checkSourcePersonaType(action envelope.Action, persona envelope.Persona) messageType {
	mt, ok := messageTable[action]
	if !ok {
		panic(fmt.Sprintf("dispatch: %s has no message-type table entry", action))
	}
	for _, allowed := range mt.allowedSources {
		if allowed == persona {
			return mt
		}
	}
	panic(fmt.Sprintf("dispatch: %s may not be sent with source persona %s", action, persona))
}
