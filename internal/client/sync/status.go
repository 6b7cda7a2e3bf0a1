package sync

// Status is the user-visible sync state. Transitions:
//
//	idle -> syncing -> {synced | error | offline}
//
// error and offline both offer a manual retry back to syncing. There is no
// automatic retry timer; retry is user-triggered or happens implicitly on
// the next successful mutation.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusSynced  Status = "synced"
	StatusError   Status = "error"
	StatusOffline Status = "offline"
)
