package ports

import (
	"context"

	"github.com/JVdev14/ache-pre-os/internal/core/domain"
)

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// SearchEventRepository persists search analytics.
type SearchEventRepository interface {
	Insert(ctx context.Context, event *domain.SearchEvent) error
	RecentByUser(ctx context.Context, userID string, limit int) ([]domain.SearchEvent, error)
}
