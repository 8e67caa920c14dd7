package envelope

import "fmt"

// Action names the logical operation a message carries. It is the first
// key into the dispatch table that fixes source persona, destination
// persona and caching hint for every envelope the dispatcher emits.
type Action uint8

const (
	ActionGet Action = iota
	ActionPut
	ActionDelete
	ActionGetVersions
	ActionGetBranch
	ActionPutVersion
	ActionDeleteBranchUntilFork
	ActionCreateAccount
	ActionRemoveAccount
	ActionRegisterPmid
	ActionUnregisterPmid
	ActionGetPmidHealth
	// ActionFetchIdentity retrieves a public identity artifact (e.g. a
	// public Pmid). Like every other operation it completes on the first
	// success reply (successes_required=1).
	ActionFetchIdentity
)

func (a Action) String() string {
	switch a {
	case ActionGet:
		return "Get"
	case ActionPut:
		return "Put"
	case ActionDelete:
		return "Delete"
	case ActionGetVersions:
		return "GetVersions"
	case ActionGetBranch:
		return "GetBranch"
	case ActionPutVersion:
		return "PutVersion"
	case ActionDeleteBranchUntilFork:
		return "DeleteBranchUntilFork"
	case ActionCreateAccount:
		return "CreateAccount"
	case ActionRemoveAccount:
		return "RemoveAccount"
	case ActionRegisterPmid:
		return "RegisterPmid"
	case ActionUnregisterPmid:
		return "UnregisterPmid"
	case ActionGetPmidHealth:
		return "GetPmidHealth"
	case ActionFetchIdentity:
		return "FetchIdentity"
	default:
		return fmt.Sprintf("Action(%d)", uint8(a))
	}
}

// ExpectsReply reports whether this action's dispatch method waits on a
// Registry-tracked reply. Put, Delete and DeleteBranchUntilFork are
// fire-and-forget.
func (a Action) ExpectsReply() bool {
	switch a {
	case ActionPut, ActionDelete, ActionDeleteBranchUntilFork:
		return false
	default:
		return true
	}
}
