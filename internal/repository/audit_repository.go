package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditEntry is one immutable record of a session-level event.
type AuditEntry struct {
	ID        string
	SessionID string
	ClientID  string
	EventType string
	Detail    string
	CreatedAt time.Time
}

// AuditRepository persists the escalation audit trail.
type AuditRepository interface {
	Insert(ctx context.Context, entry *AuditEntry) error
	ListBySession(ctx context.Context, sessionID string) ([]AuditEntry, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository instantiates repository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Insert(ctx context.Context, entry *AuditEntry) error {
	const query = `
        INSERT INTO session_events (session_id, client_id, event_type, detail)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.SessionID,
		entry.ClientID,
		entry.EventType,
		entry.Detail,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditRepository) ListBySession(ctx context.Context, sessionID string) ([]AuditEntry, error) {
	const query = `
        SELECT id, session_id, client_id, event_type, detail, created_at
        FROM session_events WHERE session_id=$1
        ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var entry AuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.SessionID,
			&entry.ClientID,
			&entry.EventType,
			&entry.Detail,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
