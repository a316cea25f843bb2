package ledger

import (
	"context"
	"sync"

	id "github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/domain"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/platform/sentinel"
)

// MemoryLedger is an in-process Ledger for single-instance deployments and
// tests. Entries live for the lifetime of the process.
type MemoryLedger struct {
	mu      sync.Mutex
	claimed map[string]id.UserID
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{claimed: make(map[string]id.UserID)}
}

func (l *MemoryLedger) Mark(_ context.Context, jti string, userID id.UserID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if holder, ok := l.claimed[jti]; ok {
		if holder == userID {
			return nil
		}
		return sentinel.ErrAlreadyUsed
	}
	l.claimed[jti] = userID
	return nil
}
