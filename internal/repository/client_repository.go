package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Client is the owning tenant of safety devices: its contact lists,
// category sets and message templates drive each escalation run.
type Client struct {
	ID                    string
	Name                  string
	APIKeyHash            string
	Language              string
	Channel               string
	SenderNumber          string
	ReminderTimeoutMillis int
	FallbackTimeoutMillis int
}

// CategorySet holds the index-aligned category keys and labels for one
// client and language.
type CategorySet struct {
	Keys   []string
	Labels []string
}

// ClientRepository encapsulates client configuration persistence.
type ClientRepository interface {
	GetByID(ctx context.Context, id string) (*Client, error)
	GetResponders(ctx context.Context, clientID string) (primary []string, fallback []string, err error)
	GetCategories(ctx context.Context, clientID, language string) (*CategorySet, error)
	GetTemplates(ctx context.Context, clientID, language string) (map[string]string, error)
}

type clientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository instantiates repository.
func NewClientRepository(pool *pgxpool.Pool) ClientRepository {
	return &clientRepository{pool: pool}
}

func (r *clientRepository) GetByID(ctx context.Context, id string) (*Client, error) {
	// NULL timeouts mean "use the service default"; they surface as -1 so
	// callers can tell them apart from an explicit 0 (timer disabled).
	const query = `
        SELECT id, name, api_key_hash, language, channel, sender_number,
               COALESCE(reminder_timeout_millis, -1), COALESCE(fallback_timeout_millis, -1)
        FROM clients WHERE id=$1`
	var client Client
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&client.ID,
		&client.Name,
		&client.APIKeyHash,
		&client.Language,
		&client.Channel,
		&client.SenderNumber,
		&client.ReminderTimeoutMillis,
		&client.FallbackTimeoutMillis,
	); err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) GetResponders(ctx context.Context, clientID string) ([]string, []string, error) {
	const query = `
        SELECT phone_number, is_fallback
        FROM responders WHERE client_id=$1
        ORDER BY position ASC`
	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var primary, fallback []string
	for rows.Next() {
		var number string
		var isFallback bool
		if err := rows.Scan(&number, &isFallback); err != nil {
			return nil, nil, err
		}
		if isFallback {
			fallback = append(fallback, number)
		} else {
			primary = append(primary, number)
		}
	}
	return primary, fallback, rows.Err()
}

func (r *clientRepository) GetCategories(ctx context.Context, clientID, language string) (*CategorySet, error) {
	const query = `
        SELECT category_key, category_label
        FROM incident_categories
        WHERE client_id=$1 AND language=$2
        ORDER BY position ASC`
	rows, err := r.pool.Query(ctx, query, clientID, language)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := &CategorySet{}
	for rows.Next() {
		var key, label string
		if err := rows.Scan(&key, &label); err != nil {
			return nil, err
		}
		set.Keys = append(set.Keys, key)
		set.Labels = append(set.Labels, label)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(set.Keys) == 0 {
		return nil, pgx.ErrNoRows
	}
	return set, nil
}

func (r *clientRepository) GetTemplates(ctx context.Context, clientID, language string) (map[string]string, error) {
	const query = `
        SELECT kind, body
        FROM message_templates
        WHERE client_id=$1 AND language=$2`
	rows, err := r.pool.Query(ctx, query, clientID, language)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make(map[string]string)
	for rows.Next() {
		var kind, body string
		if err := rows.Scan(&kind, &body); err != nil {
			return nil, err
		}
		templates[kind] = body
	}
	return templates, rows.Err()
}
