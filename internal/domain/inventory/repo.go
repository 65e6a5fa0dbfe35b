package inventory

import (
	"context"

	"github.com/google/uuid"
)

// Store is the transactional write surface. Every method is one atomic unit:
// the bed (or department) writes and the owning hospital's counter adjustment
// commit together or not at all. Implementations enforce the approval gate
// under the same atomicity: staff mutations against a non-approved hospital
// fail PermissionDenied, booking against one fails NotFound.
//
// Counter updates are delta-based. No method recomputes a counter by
// rescanning beds; storage cost stays O(1) in hospital size. Every code path
// that changes a bed's status or existence must come through here.
type Store interface {
	// CreateDepartment inserts an ad hoc department. Conflict when the
	// hospital already has a department with that name.
	CreateDepartment(ctx context.Context, d *Department) error

	// CreateDepartmentWithBeds inserts the department and generates bedCount
	// beds from its name prefix, numbering from 01, as one unit. total_beds
	// rises by bedCount.
	CreateDepartmentWithBeds(ctx context.Context, d *Department, bedCount int) ([]*Bed, error)

	// CreateBed inserts one bed. total_beds +1; occupied_beds +1 iff the
	// initial status is Occupied. Conflict when the code already exists in
	// the department.
	CreateBed(ctx context.Context, b *Bed) error

	// CreateBeds generates count sequential beds continuing after the
	// department's highest existing suffix. All Available; total_beds +count.
	// An empty bedType falls back to the department default.
	CreateBeds(ctx context.Context, hospitalID, departmentID uuid.UUID, count int, bedType string) ([]*Bed, error)

	// UpdateBedStatus applies a staff status transition. occupied_beds moves
	// by the delta implied by the transition (+1 entering Occupied, -1
	// leaving, else 0). Leaving Occupied clears patient_id; staff edits never
	// set it.
	UpdateBedStatus(ctx context.Context, hospitalID, departmentID uuid.UUID, bedCode, status string, notes *string) (*Bed, error)

	// DeleteBed removes the bed; total_beds -1, occupied_beds -1 iff it was
	// Occupied. A second delete of the same bed is NotFound, not a no-op.
	DeleteBed(ctx context.Context, hospitalID, departmentID uuid.UUID, bedCode string) error

	// BookBed is the compare-and-swap claim: Occupied+patientID only if the
	// status read in the same unit was Available, else Conflict with no
	// writes. occupied_beds +1 on success.
	BookBed(ctx context.Context, hospitalID, departmentID uuid.UUID, bedCode string, patientID uuid.UUID) (*Bed, error)
}

// DepartmentRepository is the read side for departments. Occupancy counts are
// computed by scanning the department's beds at read time; department bed
// counts are small, so the scan is cheap and needs no maintained counter.
type DepartmentRepository interface {
	GetByID(ctx context.Context, hospitalID, departmentID uuid.UUID) (*Department, error)
	ListByHospital(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Department, int, error)
	Occupancy(ctx context.Context, hospitalID, departmentID uuid.UUID) (*DepartmentOccupancy, error)
}

// BedRepository is the read side for beds.
type BedRepository interface {
	Get(ctx context.Context, hospitalID, departmentID uuid.UUID, bedCode string) (*Bed, error)
	ListByDepartment(ctx context.Context, hospitalID, departmentID uuid.UUID, limit, offset int) ([]*Bed, int, error)
	// ListAvailable returns Available beds across the hospital, optionally
	// narrowed to one department.
	ListAvailable(ctx context.Context, hospitalID uuid.UUID, departmentID *uuid.UUID, limit, offset int) ([]*Bed, int, error)
}
