package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/escalation-service/internal/domain"
)

const (
	sessionKeyPrefix = "alert:session:"
	inboundKeyPrefix = "alert:inbound:"

	// Sessions are kept for a week; archival beyond that is the consumer's
	// concern, the escalation core never deletes sessions.
	sessionTTL = 7 * 24 * time.Hour
)

// SessionStore persists alert sessions in Redis: the session document as
// JSON plus an index from the inbound (device) address to the session id.
type SessionStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewSessionStore constructs the store.
func NewSessionStore(r *Redis, logger *zap.Logger) *SessionStore {
	return &SessionStore{client: r.Client, logger: logger}
}

// Create writes a new session and indexes its inbound address.
func (s *SessionStore) Create(ctx context.Context, session *domain.AlertSession) error {
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	if err := s.write(ctx, session); err != nil {
		return err
	}
	if session.InboundAddress != "" {
		key := inboundKeyPrefix + session.InboundAddress
		if err := s.client.Set(ctx, key, session.SessionID, sessionTTL).Err(); err != nil {
			return fmt.Errorf("index session by inbound address: %w", err)
		}
	}
	return nil
}

// GetCurrentSession returns a fresh read of the session, or nil when the
// session does not exist. No caching: timer guards rely on fresh reads.
func (s *SessionStore) GetCurrentSession(ctx context.Context, sessionID string) (*domain.AlertSession, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", sessionID, err)
	}

	var session domain.AlertSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &session, nil
}

// GetSessionByInboundAddress resolves a session via the inbound address
// index, or nil when no session is known for the address.
func (s *SessionStore) GetSessionByInboundAddress(ctx context.Context, to string) (*domain.AlertSession, error) {
	sessionID, err := s.client.Get(ctx, inboundKeyPrefix+to).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve session by address: %w", err)
	}
	return s.GetCurrentSession(ctx, sessionID)
}

// ApplyUpdate merges a partial update into the stored session and returns
// the merged result. The read-modify-write is not transactional; the first
// attribution write wins on a race, later ones are ignored by the merge.
func (s *SessionStore) ApplyUpdate(ctx context.Context, update domain.SessionUpdate) (*domain.AlertSession, error) {
	session, err := s.GetCurrentSession(ctx, update.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("session %s not found", update.SessionID)
	}

	mergeUpdate(session, update)
	session.UpdatedAt = time.Now().UTC()

	if err := s.write(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionStore) write(ctx context.Context, session *domain.AlertSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.SessionID, err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+session.SessionID, raw, sessionTTL).Err(); err != nil {
		return fmt.Errorf("write session %s: %w", session.SessionID, err)
	}
	return nil
}

// mergeUpdate applies the non-nil fields of a partial update. The responder
// attribution is set at most once and stable afterwards.
func mergeUpdate(session *domain.AlertSession, update domain.SessionUpdate) {
	if update.AlertState != nil {
		session.AlertState = *update.AlertState
	}
	if update.IncidentCategoryKey != nil {
		session.IncidentCategoryKey = *update.IncidentCategoryKey
	}
	if update.IncidentCategory != nil {
		session.IncidentCategory = *update.IncidentCategory
	}
	if update.RespondedByPhoneNumber != nil && session.RespondedByPhoneNumber == "" {
		session.RespondedByPhoneNumber = *update.RespondedByPhoneNumber
	}
	if update.FallbackReturnMessage != nil {
		session.FallbackReturnMessage = *update.FallbackReturnMessage
	}
}
