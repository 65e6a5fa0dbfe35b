package hospital

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medibed/medibed/internal/platform/apperror"
)

// -- Mock Repository --

type mockRepo struct {
	hospitals map[uuid.UUID]*Hospital
}

func newMockRepo() *mockRepo {
	return &mockRepo{hospitals: make(map[uuid.UUID]*Hospital)}
}

func (m *mockRepo) Create(_ context.Context, h *Hospital) error {
	if _, ok := m.hospitals[h.ID]; ok {
		return apperror.Conflict("hospital already registered")
	}
	h.CreatedAt = time.Now()
	h.UpdatedAt = time.Now()
	m.hospitals[h.ID] = h
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Hospital, error) {
	h, ok := m.hospitals[id]
	if !ok {
		return nil, apperror.NotFound("hospital not found")
	}
	return h, nil
}

func (m *mockRepo) UpdateProfile(_ context.Context, id uuid.UUID, p *Profile) (*Hospital, error) {
	h, ok := m.hospitals[id]
	if !ok {
		return nil, apperror.NotFound("hospital not found")
	}
	h.Name = p.Name
	h.AdminName = p.AdminName
	h.AdminEmail = p.AdminEmail
	h.Address = p.Address
	h.City = p.City
	h.State = p.State
	h.District = p.District
	h.PostalCode = p.PostalCode
	h.UpdatedAt = time.Now()
	return h, nil
}

func (m *mockRepo) SetStatus(_ context.Context, id uuid.UUID, status string) (*Hospital, error) {
	h, ok := m.hospitals[id]
	if !ok {
		return nil, apperror.NotFound("hospital not found")
	}
	h.Status = status
	h.UpdatedAt = time.Now()
	return h, nil
}

func (m *mockRepo) List(_ context.Context, params map[string]string, limit, offset int) ([]*Hospital, int, error) {
	var result []*Hospital
	for _, h := range m.hospitals {
		if st, ok := params["status"]; ok && h.Status != st {
			continue
		}
		if state, ok := params["state"]; ok && (h.State == nil || *h.State != state) {
			continue
		}
		if d, ok := params["district"]; ok && (h.District == nil || *h.District != d) {
			continue
		}
		result = append(result, h)
	}
	return result, len(result), nil
}

// -- Tests --

func TestRegisterStartsPendingWithZeroCounters(t *testing.T) {
	svc := NewService(newMockRepo())
	id := uuid.New()

	h, err := svc.Register(context.Background(), id, &Profile{
		Name:       "  City General  ",
		AdminName:  "A. Rao",
		AdminEmail: "admin@citygeneral.example",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if h.ID != id {
		t.Errorf("id = %v, want caller subject %v", h.ID, id)
	}
	if h.Status != StatusPending {
		t.Errorf("status = %q, want pending", h.Status)
	}
	if h.TotalBeds != 0 || h.OccupiedBeds != 0 {
		t.Errorf("counters = %d/%d, want 0/0", h.OccupiedBeds, h.TotalBeds)
	}
	if h.Name != "City General" {
		t.Errorf("name not trimmed: %q", h.Name)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(newMockRepo())

	tests := []struct {
		name    string
		id      uuid.UUID
		profile Profile
	}{
		{"nil caller", uuid.Nil, Profile{Name: "X", AdminEmail: "a@b.c"}},
		{"missing name", uuid.New(), Profile{AdminEmail: "a@b.c"}},
		{"blank name", uuid.New(), Profile{Name: "   ", AdminEmail: "a@b.c"}},
		{"missing email", uuid.New(), Profile{Name: "X"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.id, &tt.profile)
			if apperror.KindOf(err) != apperror.KindInvalidArgument {
				t.Errorf("kind = %v, want invalid_argument", apperror.KindOf(err))
			}
		})
	}
}

func TestRegisterTwiceConflicts(t *testing.T) {
	svc := NewService(newMockRepo())
	id := uuid.New()
	p := &Profile{Name: "City General", AdminEmail: "a@b.c"}

	if _, err := svc.Register(context.Background(), id, p); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, err := svc.Register(context.Background(), id, p)
	if apperror.KindOf(err) != apperror.KindConflict {
		t.Errorf("kind = %v, want conflict", apperror.KindOf(err))
	}
}

func TestApproveReject(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	id := uuid.New()
	if _, err := svc.Register(context.Background(), id, &Profile{Name: "H", AdminEmail: "a@b.c"}); err != nil {
		t.Fatal(err)
	}

	h, err := svc.Approve(context.Background(), id)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if !h.IsApproved() {
		t.Error("hospital should be approved")
	}

	h, err = svc.Reject(context.Background(), id)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if h.Status != StatusRejected {
		t.Errorf("status = %q, want rejected", h.Status)
	}

	_, err = svc.Approve(context.Background(), uuid.New())
	if apperror.KindOf(err) != apperror.KindNotFound {
		t.Errorf("approving unknown hospital: kind = %v, want not_found", apperror.KindOf(err))
	}
}

func TestListVisibility(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	approved := uuid.New()
	pending := uuid.New()
	if _, err := svc.Register(ctx, approved, &Profile{Name: "A", AdminEmail: "a@a.a"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Register(ctx, pending, &Profile{Name: "B", AdminEmail: "b@b.b"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Approve(ctx, approved); err != nil {
		t.Fatal(err)
	}

	items, total, err := svc.List(ctx, false, nil, 20, 0)
	if err != nil {
		t.Fatalf("patient List: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != approved {
		t.Errorf("patient should see only the approved hospital, got %d", total)
	}

	_, total, err = svc.List(ctx, true, nil, 20, 0)
	if err != nil {
		t.Fatalf("admin List: %v", err)
	}
	if total != 2 {
		t.Errorf("admin should see all hospitals, got %d", total)
	}

	_, _, err = svc.List(ctx, true, map[string]string{"status": "bogus"}, 20, 0)
	if apperror.KindOf(err) != apperror.KindInvalidArgument {
		t.Errorf("bogus status filter: kind = %v, want invalid_argument", apperror.KindOf(err))
	}
}

func TestUpdateProfileNeverTouchesCounters(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	id := uuid.New()
	if _, err := svc.Register(ctx, id, &Profile{Name: "H", AdminEmail: "a@b.c"}); err != nil {
		t.Fatal(err)
	}
	// Simulate the inventory engine having moved the counters.
	repo.hospitals[id].TotalBeds = 12
	repo.hospitals[id].OccupiedBeds = 5

	city := "Pune"
	h, err := svc.UpdateProfile(ctx, id, &Profile{Name: "H Renamed", AdminEmail: "a@b.c", City: &city})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if h.TotalBeds != 12 || h.OccupiedBeds != 5 {
		t.Errorf("profile update changed counters: %d/%d", h.OccupiedBeds, h.TotalBeds)
	}
	if h.Name != "H Renamed" || h.City == nil || *h.City != "Pune" {
		t.Errorf("profile fields not applied: %+v", h)
	}

	_, err = svc.UpdateProfile(ctx, id, &Profile{Name: strings.Repeat(" ", 3), AdminEmail: "a@b.c"})
	if apperror.KindOf(err) != apperror.KindInvalidArgument {
		t.Errorf("blank name: kind = %v, want invalid_argument", apperror.KindOf(err))
	}
}
