package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/parley/internal/db"
)

// JournalListInput contains parameters for the JournalList operation.
type JournalListInput struct {
	Operation string // optional: detect, summarize or translate
	Limit     int    // default: 20, max: 100
	Offset    int    // default: 0
}

// JournalListOutput contains the result of the JournalList operation.
type JournalListOutput struct {
	Items      []db.Call  `json:"items"`
	Pagination Pagination `json:"pagination"`
	Sort       string     `json:"sort"`
}

// JournalList retrieves recorded host calls with pagination.
func JournalList(ctx context.Context, database *sql.DB, input JournalListInput) (*JournalListOutput, error) {
	var operation *string
	if op := strings.ToLower(strings.TrimSpace(input.Operation)); op != "" {
		operation = &op
	}

	// Apply limit defaults and bounds
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	offset := max(input.Offset, 0)

	calls, total, err := db.ListCalls(ctx, database, db.ListCallsFilter{
		Operation: operation,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, err
	}

	return &JournalListOutput{
		Items: calls,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(calls) < total,
			Total:   total,
		},
		Sort: "created_at_desc",
	}, nil
}
