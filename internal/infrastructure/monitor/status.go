package monitor

import "time"

// Status reflects the last observed health of the ledger's collaborators.
type Status struct {
	PostgreSQL  bool
	Redis       bool
	Journal     bool
	JournalSize int
	LastCheck   time.Time
}
