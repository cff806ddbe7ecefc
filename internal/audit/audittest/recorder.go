// Package audittest provides an in-memory audit recorder for service tests.
package audittest

import (
	"context"
	"sync"

	auditdomain "github.com/smallbiznis/recaudo/internal/audit/domain"
	"gorm.io/gorm"
)

// Recorder keeps events in memory. It ignores the transaction handle, so
// events survive a rollback of the caller.
type Recorder struct {
	mu     sync.Mutex
	events []auditdomain.Event
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Record(_ context.Context, _ *gorm.DB, event auditdomain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) Events() []auditdomain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]auditdomain.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Actions returns the recorded actions for entityName in order.
func (r *Recorder) Actions(entityName string) []auditdomain.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []auditdomain.Action
	for _, event := range r.events {
		if event.EntityName == entityName {
			out = append(out, event.Action)
		}
	}
	return out
}
