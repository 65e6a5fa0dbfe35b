package inventory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medibed/medibed/internal/domain/hospital"
	"github.com/medibed/medibed/internal/platform/apperror"
)

// memStore is an in-memory double honoring the Store contract: the mutex is
// the store's atomicity, counters move by deltas inside the same critical
// section as the bed write, and the approval gate is enforced exactly like
// the pg store does it. It also serves as both read repositories.
type memStore struct {
	mu          sync.Mutex
	hospitals   map[uuid.UUID]*memHospital
	departments map[uuid.UUID]*Department
	beds        map[uuid.UUID]map[string]*Bed // department id -> bed code -> bed
}

type memHospital struct {
	status       string
	totalBeds    int
	occupiedBeds int
}

func newMemStore() *memStore {
	return &memStore{
		hospitals:   make(map[uuid.UUID]*memHospital),
		departments: make(map[uuid.UUID]*Department),
		beds:        make(map[uuid.UUID]map[string]*Bed),
	}
}

func (m *memStore) addHospital(status string) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.hospitals[id] = &memHospital{status: status}
	return id
}

// counters returns the maintained aggregate pair.
func (m *memStore) counters(hospitalID uuid.UUID) (total, occupied int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.hospitals[hospitalID]
	return h.totalBeds, h.occupiedBeds
}

// groundTruth recounts the hospital's beds directly, bypassing the
// maintained counters, so tests can compare the two.
func (m *memStore) groundTruth(hospitalID uuid.UUID) (total, occupied int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, byCode := range m.beds {
		for _, b := range byCode {
			if b.HospitalID != hospitalID {
				continue
			}
			total++
			if b.Status == StatusOccupied {
				occupied++
			}
		}
	}
	return total, occupied
}

func cloneBed(b *Bed) *Bed {
	c := *b
	if b.PatientID != nil {
		pid := *b.PatientID
		c.PatientID = &pid
	}
	if b.Notes != nil {
		n := *b.Notes
		c.Notes = &n
	}
	return &c
}

// locked helpers

func (m *memStore) requireStaff(hospitalID uuid.UUID) error {
	h, ok := m.hospitals[hospitalID]
	if !ok {
		return apperror.NotFound("hospital not found")
	}
	if h.status != hospital.StatusApproved {
		return apperror.PermissionDenied("hospital is not approved")
	}
	return nil
}

func (m *memStore) departmentOf(hospitalID, departmentID uuid.UUID) (*Department, error) {
	d, ok := m.departments[departmentID]
	if !ok || d.HospitalID != hospitalID {
		return nil, apperror.NotFound("department not found")
	}
	return d, nil
}

func (m *memStore) insertDepartmentLocked(d *Department) error {
	for _, existing := range m.departments {
		if existing.HospitalID == d.HospitalID && strings.EqualFold(existing.Name, d.Name) {
			return apperror.Conflict("department %q already exists", d.Name)
		}
	}
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	m.departments[d.ID] = d
	m.beds[d.ID] = make(map[string]*Bed)
	return nil
}

func (m *memStore) insertBedLocked(b *Bed) error {
	byCode := m.beds[b.DepartmentID]
	if _, ok := byCode[b.Code]; ok {
		return apperror.Conflict("bed id %q already exists in department", b.Code)
	}
	b.ID = uuid.New()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	byCode[b.Code] = b
	return nil
}

// -- Store --

func (m *memStore) CreateDepartment(_ context.Context, d *Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireStaff(d.HospitalID); err != nil {
		return err
	}
	return m.insertDepartmentLocked(d)
}

func (m *memStore) CreateDepartmentWithBeds(_ context.Context, d *Department, bedCount int) ([]*Bed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireStaff(d.HospitalID); err != nil {
		return nil, err
	}
	if err := m.insertDepartmentLocked(d); err != nil {
		return nil, err
	}
	prefix := BedPrefix(d.Name)
	var out []*Bed
	for i := 0; i < bedCount; i++ {
		b := &Bed{
			HospitalID:   d.HospitalID,
			DepartmentID: d.ID,
			Code:         FormatBedCode(prefix, i+1),
			Type:         d.DefaultBedType,
			Status:       StatusAvailable,
		}
		if err := m.insertBedLocked(b); err != nil {
			return nil, err
		}
		out = append(out, cloneBed(b))
	}
	m.hospitals[d.HospitalID].totalBeds += bedCount
	return out, nil
}

func (m *memStore) CreateBed(_ context.Context, b *Bed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireStaff(b.HospitalID); err != nil {
		return err
	}
	if _, err := m.departmentOf(b.HospitalID, b.DepartmentID); err != nil {
		return err
	}
	if err := m.insertBedLocked(b); err != nil {
		return err
	}
	h := m.hospitals[b.HospitalID]
	h.totalBeds++
	if b.Status == StatusOccupied {
		h.occupiedBeds++
	}
	return nil
}

func (m *memStore) CreateBeds(_ context.Context, hospitalID, departmentID uuid.UUID, count int, bedType string) ([]*Bed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireStaff(hospitalID); err != nil {
		return nil, err
	}
	d, err := m.departmentOf(hospitalID, departmentID)
	if err != nil {
		return nil, err
	}
	typ := bedType
	if typ == "" {
		typ = d.DefaultBedType
	}

	var codes []string
	for code := range m.beds[departmentID] {
		codes = append(codes, code)
	}
	prefix := BedPrefix(d.Name)
	seq := NextBedSequence(codes)

	var out []*Bed
	for i := 0; i < count; i++ {
		b := &Bed{
			HospitalID:   hospitalID,
			DepartmentID: departmentID,
			Code:         FormatBedCode(prefix, seq+i),
			Type:         typ,
			Status:       StatusAvailable,
		}
		if err := m.insertBedLocked(b); err != nil {
			return nil, err
		}
		out = append(out, cloneBed(b))
	}
	m.hospitals[hospitalID].totalBeds += count
	return out, nil
}

func (m *memStore) UpdateBedStatus(_ context.Context, hospitalID, departmentID uuid.UUID, bedCode, status string, notes *string) (*Bed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireStaff(hospitalID); err != nil {
		return nil, err
	}
	b, ok := m.beds[departmentID][bedCode]
	if !ok || b.HospitalID != hospitalID {
		return nil, apperror.NotFound("bed not found")
	}

	delta := 0
	if b.Status != status {
		switch {
		case status == StatusOccupied:
			delta = 1
		case b.Status == StatusOccupied:
			delta = -1
		}
	}
	if status != StatusOccupied {
		b.PatientID = nil
	}
	b.Status = status
	if notes != nil {
		b.Notes = notes
	}
	b.UpdatedAt = time.Now()
	m.hospitals[hospitalID].occupiedBeds += delta
	return cloneBed(b), nil
}

func (m *memStore) DeleteBed(_ context.Context, hospitalID, departmentID uuid.UUID, bedCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireStaff(hospitalID); err != nil {
		return err
	}
	b, ok := m.beds[departmentID][bedCode]
	if !ok || b.HospitalID != hospitalID {
		return apperror.NotFound("bed not found")
	}
	delete(m.beds[departmentID], bedCode)
	h := m.hospitals[hospitalID]
	h.totalBeds--
	if b.Status == StatusOccupied {
		h.occupiedBeds--
	}
	return nil
}

func (m *memStore) BookBed(_ context.Context, hospitalID, departmentID uuid.UUID, bedCode string, patientID uuid.UUID) (*Bed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hospitals[hospitalID]
	if !ok || h.status != hospital.StatusApproved {
		return nil, apperror.NotFound("hospital not found")
	}
	if _, err := m.departmentOf(hospitalID, departmentID); err != nil {
		return nil, err
	}
	b, ok := m.beds[departmentID][bedCode]
	if !ok {
		return nil, apperror.NotFound("bed not found")
	}
	if b.Status != StatusAvailable {
		return nil, apperror.Conflict("bed no longer available")
	}
	pid := patientID
	b.Status = StatusOccupied
	b.PatientID = &pid
	b.UpdatedAt = time.Now()
	h.occupiedBeds++
	return cloneBed(b), nil
}

// -- DepartmentRepository --

func (m *memStore) GetByID(_ context.Context, hospitalID, departmentID uuid.UUID) (*Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, err := m.departmentOf(hospitalID, departmentID)
	if err != nil {
		return nil, err
	}
	c := *d
	return &c, nil
}

func (m *memStore) ListByHospital(_ context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Department, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*Department
	for _, d := range m.departments {
		if d.HospitalID == hospitalID {
			c := *d
			all = append(all, &c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return page(all, limit, offset), len(all), nil
}

func (m *memStore) Occupancy(_ context.Context, hospitalID, departmentID uuid.UUID) (*DepartmentOccupancy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.departmentOf(hospitalID, departmentID); err != nil {
		return nil, err
	}
	occ := DepartmentOccupancy{DepartmentID: departmentID}
	for _, b := range m.beds[departmentID] {
		occ.TotalBeds++
		if b.Status == StatusOccupied {
			occ.OccupiedBeds++
		}
	}
	occ.Available = occ.TotalBeds - occ.OccupiedBeds
	return &occ, nil
}

// -- BedRepository --

func (m *memStore) Get(_ context.Context, hospitalID, departmentID uuid.UUID, bedCode string) (*Bed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.beds[departmentID][bedCode]
	if !ok || b.HospitalID != hospitalID {
		return nil, apperror.NotFound("bed not found")
	}
	return cloneBed(b), nil
}

func (m *memStore) ListByDepartment(_ context.Context, hospitalID, departmentID uuid.UUID, limit, offset int) ([]*Bed, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*Bed
	for _, b := range m.beds[departmentID] {
		if b.HospitalID == hospitalID {
			all = append(all, cloneBed(b))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	return page(all, limit, offset), len(all), nil
}

func (m *memStore) ListAvailable(_ context.Context, hospitalID uuid.UUID, departmentID *uuid.UUID, limit, offset int) ([]*Bed, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hospitals[hospitalID]
	if !ok || h.status != hospital.StatusApproved {
		return nil, 0, apperror.NotFound("hospital not found")
	}
	var all []*Bed
	for deptID, byCode := range m.beds {
		if departmentID != nil && deptID != *departmentID {
			continue
		}
		for _, b := range byCode {
			if b.HospitalID == hospitalID && b.Status == StatusAvailable {
				all = append(all, cloneBed(b))
			}
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	return page(all, limit, offset), len(all), nil
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}
