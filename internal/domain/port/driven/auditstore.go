package driven

import (
	"context"

	"github.com/ericfisherdev/mailbridge/internal/domain/model"
)

// AuditStore defines the driven port for the mailbox operation audit log.
// Only mutating operations are recorded (send, trash, label change, draft
// create); reads are not.
type AuditStore interface {
	// Record appends an entry. ID and OccurredAt are assigned by the store.
	Record(ctx context.Context, entry model.AuditEntry) error

	// List returns the most recent entries, newest first, capped at limit.
	List(ctx context.Context, limit int) ([]model.AuditEntry, error)
}
