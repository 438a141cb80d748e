package ports

import (
	"context"

	"github.com/hive-corporation/fusion/internal/core/domain"
)

// SessionRepository is the ordered, appendable store of sessions.
// Save persists s only when the stored version still equals expectedVersion,
// and returns domain.ErrConcurrentMutation otherwise. A successful Save
// stores s with Version = expectedVersion+1.
type SessionRepository interface {
	Create(ctx context.Context, s domain.Session) error
	Get(ctx context.Context, id string) (domain.Session, error)
	List(ctx context.Context, limit int) ([]domain.Session, error)
	Save(ctx context.Context, s domain.Session, expectedVersion int64) error
	Delete(ctx context.Context, id string) error
}
