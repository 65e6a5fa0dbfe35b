package hospital

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists hospital rows. Implementations must never touch
// total_beds or occupied_beds; those columns belong to the inventory engine.
type Repository interface {
	Create(ctx context.Context, h *Hospital) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, p *Profile) (*Hospital, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) (*Hospital, error)
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*Hospital, int, error)
}
