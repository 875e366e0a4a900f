package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/parley/internal/errors"
)

// Outcome recorded for a successful host call.
const OutcomeOK = "ok"

// Call is one journaled host call. Only metadata is stored, never message text.
type Call struct {
	ID           string `json:"id"`
	Operation    string `json:"operation"`
	MessageID    string `json:"message_id,omitempty"`
	SourceLang   string `json:"source_lang,omitempty"`
	TargetLang   string `json:"target_lang,omitempty"`
	Outcome      string `json:"outcome"`
	ErrorMessage string `json:"error_message,omitempty"`
	DurationMS   int64  `json:"duration_ms"`
	CreatedAt    int64  `json:"created_at"`
}

// ListCallsFilter narrows ListCalls.
type ListCallsFilter struct {
	Operation *string
	Limit     int
	Offset    int
}

// InsertCall stores a journal row.
func InsertCall(ctx context.Context, db *sql.DB, c *Call) error {
	query := `
		INSERT INTO host_calls (
			id, operation, message_id, source_lang, target_lang,
			outcome, error_message, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		c.ID, c.Operation, toNullString(c.MessageID), toNullString(c.SourceLang), toNullString(c.TargetLang),
		c.Outcome, toNullString(c.ErrorMessage), c.DurationMS, c.CreatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ListCalls returns journal rows newest first, plus the total matching count.
func ListCalls(ctx context.Context, db *sql.DB, f ListCallsFilter) ([]Call, int, error) {
	where := ""
	args := []any{}
	if f.Operation != nil {
		where = " WHERE operation = ?"
		args = append(args, *f.Operation)
	}

	var total int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM host_calls"+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `
		SELECT id, operation, message_id, source_lang, target_lang,
			outcome, error_message, duration_ms, created_at
		FROM host_calls` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := db.QueryContext(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	calls := make([]Call, 0)
	for rows.Next() {
		var (
			c                              Call
			messageID, source, target, msg sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Operation, &messageID, &source, &target,
			&c.Outcome, &msg, &c.DurationMS, &c.CreatedAt); err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		c.MessageID = messageID.String
		c.SourceLang = source.String
		c.TargetLang = target.String
		c.ErrorMessage = msg.String
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	return calls, total, nil
}

// PurgeCalls deletes journal rows. With olderThanDays nil every row goes.
func PurgeCalls(ctx context.Context, db *sql.DB, olderThanDays *int) (int, error) {
	query := "DELETE FROM host_calls"
	args := []any{}
	if olderThanDays != nil {
		cutoff := time.Now().Add(-time.Duration(*olderThanDays) * 24 * time.Hour).Unix()
		query += " WHERE created_at < ?"
		args = append(args, cutoff)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

// toNullString maps "" to NULL.
func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
