package inventory

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Bed statuses. Patients may only move a bed Available → Occupied (booking);
// staff may apply any transition.
const (
	StatusAvailable   = "Available"
	StatusOccupied    = "Occupied"
	StatusCleaning    = "Cleaning"
	StatusMaintenance = "Maintenance"
)

var validStatuses = map[string]bool{
	StatusAvailable:   true,
	StatusOccupied:    true,
	StatusCleaning:    true,
	StatusMaintenance: true,
}

// ValidStatus reports whether s is one of the four bed statuses.
func ValidStatus(s string) bool { return validStatuses[s] }

// Department maps to the departments table. Name is unique per hospital,
// case-insensitive. DefaultBedType seeds bulk bed generation when the caller
// does not name a type.
type Department struct {
	ID             uuid.UUID `db:"id" json:"id"`
	HospitalID     uuid.UUID `db:"hospital_id" json:"hospital_id"`
	Name           string    `db:"name" json:"name"`
	Description    string    `db:"description" json:"description"`
	DefaultBedType string    `db:"default_bed_type" json:"default_bed_type"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Bed maps to the beds table. Code is the human-readable bed id (e.g.
// "ICU-01"), unique within its department. PatientID is set only by booking
// and cleared whenever the bed leaves Occupied.
type Bed struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	HospitalID   uuid.UUID  `db:"hospital_id" json:"hospital_id"`
	DepartmentID uuid.UUID  `db:"department_id" json:"department_id"`
	Code         string     `db:"bed_id" json:"bed_id"`
	Type         string     `db:"type" json:"type"`
	Status       string     `db:"status" json:"status"`
	PatientID    *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	Notes        *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// BedSpec is the caller-supplied shape for creating a single bed.
type BedSpec struct {
	Code   string  `json:"bed_id"`
	Type   string  `json:"type"`
	Status string  `json:"status"`
	Notes  *string `json:"notes,omitempty"`
}

// DepartmentOccupancy is the scan-on-read projection for one department.
type DepartmentOccupancy struct {
	DepartmentID uuid.UUID `json:"department_id"`
	TotalBeds    int       `json:"total_beds"`
	OccupiedBeds int       `json:"occupied_beds"`
	Available    int       `json:"available"`
}

// BedPrefix derives the bed-code prefix from a department name: strip
// everything non-alphabetic, keep the first three letters, upper-case them.
// "Intensive Care Unit" → "INT", "X-Ray 2" → "XRA".
func BedPrefix(name string) string {
	var letters []rune
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			letters = append(letters, r)
			if len(letters) == 3 {
				break
			}
		}
	}
	return strings.ToUpper(string(letters))
}

// NextBedSequence returns the sequence number the next generated bed should
// use: one past the highest trailing numeric suffix among existing codes.
// Codes without a "-<digits>" tail do not contribute. An empty department
// starts at 1.
func NextBedSequence(existing []string) int {
	max := 0
	for _, code := range existing {
		i := strings.LastIndex(code, "-")
		if i < 0 || i == len(code)-1 {
			continue
		}
		n, err := strconv.Atoi(code[i+1:])
		if err != nil || n < 0 {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max + 1
}

// FormatBedCode renders a generated bed code: prefix, dash, two-digit
// zero-padded sequence.
func FormatBedCode(prefix string, seq int) string {
	return prefix + "-" + pad2(seq)
}

func pad2(n int) string {
	s := strconv.Itoa(n)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

// DepartmentTemplate is a predefined (name, description, default bed type)
// tuple offered to staff when seeding a new department.
type DepartmentTemplate struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	DefaultBedType string `json:"default_bed_type"`
}

// DepartmentTemplates is the fixed catalog served as reference data. Ad hoc
// departments (any name plus description) are also accepted.
var DepartmentTemplates = []DepartmentTemplate{
	{"Intensive Care Unit", "Critical care for patients requiring continuous monitoring.", "ICU"},
	{"Emergency", "Acute care for walk-in and ambulance arrivals.", "Emergency"},
	{"General Medicine", "Inpatient care for general medical conditions.", "General Ward"},
	{"Pediatrics", "Inpatient care for infants, children and adolescents.", "Pediatric"},
	{"Maternity", "Labor, delivery and postnatal care.", "Maternity"},
	{"Surgery", "Pre- and post-operative inpatient care.", "Post-Op"},
}

// BedTypes is the fixed bed-type catalog. Free-form types are still accepted
// on individual bed creation.
var BedTypes = []string{
	"ICU",
	"Emergency",
	"General Ward",
	"Pediatric",
	"Maternity",
	"Post-Op",
	"Private",
}
