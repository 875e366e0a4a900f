package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hpungsan/parley/internal/db"
	"github.com/hpungsan/parley/internal/errors"
)

// JournalPurgeInput contains parameters for the JournalPurge operation.
type JournalPurgeInput struct {
	OlderThanDays *int // optional, only purge calls recorded more than N days ago
}

// JournalPurgeOutput contains the result of the JournalPurge operation.
type JournalPurgeOutput struct {
	Purged  int    `json:"purged"`
	Message string `json:"message"`
}

// JournalPurge permanently deletes journal rows.
func JournalPurge(ctx context.Context, database *sql.DB, input JournalPurgeInput) (*JournalPurgeOutput, error) {
	if input.OlderThanDays != nil && *input.OlderThanDays < 0 {
		return nil, errors.NewInvalidRequest("older_than_days must not be negative")
	}

	count, err := db.PurgeCalls(ctx, database, input.OlderThanDays)
	if err != nil {
		return nil, err
	}

	return &JournalPurgeOutput{
		Purged:  count,
		Message: formatPurgeMessage(count, input.OlderThanDays),
	}, nil
}

// formatPurgeMessage creates a human-readable message for the purge result.
func formatPurgeMessage(count int, olderThanDays *int) string {
	if count == 0 {
		return "No journal entries to purge"
	}

	word := "entry"
	if count > 1 {
		word = "entries"
	}

	msg := fmt.Sprintf("Permanently deleted %d journal %s", count, word)
	if olderThanDays != nil {
		msg += fmt.Sprintf(" (recorded more than %d days ago)", *olderThanDays)
	}
	return msg
}
