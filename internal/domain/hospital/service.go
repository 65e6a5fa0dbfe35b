package hospital

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/medibed/medibed/internal/platform/apperror"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates the hospital row for a staff account. The row id is the
// staff subject id. Counters start at zero and status starts pending no
// matter what the caller sent.
func (s *Service) Register(ctx context.Context, id uuid.UUID, p *Profile) (*Hospital, error) {
	if id == uuid.Nil {
		return nil, apperror.Invalid("caller identity is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, apperror.Invalid("hospital name is required")
	}
	if strings.TrimSpace(p.AdminEmail) == "" {
		return nil, apperror.Invalid("admin email is required")
	}

	h := &Hospital{
		ID:           id,
		Name:         strings.TrimSpace(p.Name),
		AdminName:    strings.TrimSpace(p.AdminName),
		AdminEmail:   strings.TrimSpace(p.AdminEmail),
		Status:       StatusPending,
		TotalBeds:    0,
		OccupiedBeds: 0,
		Address:      p.Address,
		City:         p.City,
		State:        p.State,
		District:     p.District,
		PostalCode:   p.PostalCode,
	}
	if err := s.repo.Create(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns hospitals visible to the caller. Admins see everything and may
// filter by status; every other caller sees approved hospitals only.
func (s *Service) List(ctx context.Context, admin bool, params map[string]string, limit, offset int) ([]*Hospital, int, error) {
	if params == nil {
		params = map[string]string{}
	}
	if !admin {
		params["status"] = StatusApproved
	} else if st, ok := params["status"]; ok {
		if st != StatusPending && st != StatusApproved && st != StatusRejected {
			return nil, 0, apperror.Invalid("invalid status filter: %s", st)
		}
	}
	return s.repo.List(ctx, params, limit, offset)
}

func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return s.repo.SetStatus(ctx, id, StatusApproved)
}

func (s *Service) Reject(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return s.repo.SetStatus(ctx, id, StatusRejected)
}

// UpdateProfile rewrites the staff-editable fields. Status and counters are
// untouched; a rejected or pending hospital may still fix its details.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, p *Profile) (*Hospital, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, apperror.Invalid("hospital name is required")
	}
	if strings.TrimSpace(p.AdminEmail) == "" {
		return nil, apperror.Invalid("admin email is required")
	}
	p.Name = strings.TrimSpace(p.Name)
	p.AdminName = strings.TrimSpace(p.AdminName)
	p.AdminEmail = strings.TrimSpace(p.AdminEmail)
	return s.repo.UpdateProfile(ctx, id, p)
}
