package hospital

import (
	"time"

	"github.com/google/uuid"
)

// Approval states for a registered hospital. Bed management is gated on
// StatusApproved; pending and rejected hospitals are invisible to patients.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Hospital maps to the hospitals table. The row id is the staff account's
// subject id, so ownership checks compare the caller's subject against it
// directly. TotalBeds and OccupiedBeds are maintained transactionally by the
// inventory engine and are never written through this package's repository.
type Hospital struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	AdminName    string    `db:"admin_name" json:"admin_name"`
	AdminEmail   string    `db:"admin_email" json:"admin_email"`
	Status       string    `db:"status" json:"status"`
	TotalBeds    int       `db:"total_beds" json:"total_beds"`
	OccupiedBeds int       `db:"occupied_beds" json:"occupied_beds"`
	Address      *string   `db:"address" json:"address,omitempty"`
	City         *string   `db:"city" json:"city,omitempty"`
	State        *string   `db:"state" json:"state,omitempty"`
	District     *string   `db:"district" json:"district,omitempty"`
	PostalCode   *string   `db:"postal_code" json:"postal_code,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// IsApproved reports whether staff mutations and patient bookings are allowed.
func (h *Hospital) IsApproved() bool { return h.Status == StatusApproved }

// AvailableBeds is the derived headroom shown to patients.
func (h *Hospital) AvailableBeds() int { return h.TotalBeds - h.OccupiedBeds }

// Profile carries the staff-editable fields. Counters and status are
// deliberately absent.
type Profile struct {
	Name       string  `json:"name"`
	AdminName  string  `json:"admin_name"`
	AdminEmail string  `json:"admin_email"`
	Address    *string `json:"address,omitempty"`
	City       *string `json:"city,omitempty"`
	State      *string `json:"state,omitempty"`
	District   *string `json:"district,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
}
