package testutil

import (
	"sync"

	"siap/pkg/auditlog"
)

type AuditEntry struct {
	Action string
	Data   interface{}
}

// AuditRecorder collects audit log calls; services call Log from goroutines.
type AuditRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (a *AuditRecorder) Log(action string, data interface{}, item auditlog.Auditable) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, AuditEntry{Action: action, Data: data})
}

func (a *AuditRecorder) Actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	actions := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		actions = append(actions, e.Action)
	}
	return actions
}

func (a *AuditRecorder) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}
