package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/parley/internal/conversation"
)

// Journal records host calls into the host_calls table.
type Journal struct {
	db *sql.DB
}

// NewJournal wraps an initialized database.
func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// Record stores c, filling in ID and CreatedAt when unset.
func (j *Journal) Record(ctx context.Context, c Call) error {
	if c.ID == "" {
		c.ID = conversation.NewID()
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().Unix()
	}
	return InsertCall(ctx, j.db, &c)
}
