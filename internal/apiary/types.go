package apiary

import (
	"fmt"
	"time"
)

// HiveStatus is the lifecycle state of a hive.
type HiveStatus string

const (
	StatusActive   HiveStatus = "active"
	StatusArchived HiveStatus = "archived"
)

// Valid reports whether s is a known status.
func (s HiveStatus) Valid() bool {
	return s == StatusActive || s == StatusArchived
}

// BoxSize is the enclosure size class of a box.
type BoxSize string

const (
	SizeDeep   BoxSize = "deep"
	SizeMedium BoxSize = "medium"
)

// Valid reports whether s is a known box size.
func (s BoxSize) Valid() bool {
	return s == SizeDeep || s == SizeMedium
}

// FrameContent classifies what a frame currently holds.
type FrameContent string

const (
	ContentHoney      FrameContent = "honey"
	ContentBrood      FrameContent = "brood"
	ContentFoundation FrameContent = "foundation"
	ContentEmpty      FrameContent = "empty"
)

// FrameContents lists every frame content in display order.
var FrameContents = []FrameContent{ContentHoney, ContentBrood, ContentFoundation, ContentEmpty}

// Valid reports whether c is a known frame content.
func (c FrameContent) Valid() bool {
	for _, known := range FrameContents {
		if c == known {
			return true
		}
	}
	return false
}

// InspectionKind distinguishes observations from configuration audit entries.
type InspectionKind string

const (
	KindClinical     InspectionKind = "clinical"
	KindConfigChange InspectionKind = "config_change"
	KindGeneral      InspectionKind = "general"
)

// Valid reports whether k is a known inspection kind.
func (k InspectionKind) Valid() bool {
	return k == KindClinical || k == KindConfigChange || k == KindGeneral
}

// HoneyStores is the coarse honey-store level recorded during an inspection.
type HoneyStores string

const (
	StoresLow    HoneyStores = "low"
	StoresMedium HoneyStores = "med"
	StoresHigh   HoneyStores = "high"
)

// Valid reports whether h is a known honey-store level.
func (h HoneyStores) Valid() bool {
	return h == StoresLow || h == StoresMedium || h == StoresHigh
}

// Temperament bounds (inclusive).
const (
	MinTemperament = 1
	MaxTemperament = 5
)

// StandardCapacities are the frame counts offered for new boxes.
// The data model accepts any positive capacity.
var StandardCapacities = []int{8, 10, 12}

// Hive is the root record of the configuration graph.
type Hive struct {
	ID        string     `json:"id"`
	Number    string     `json:"number"`
	Type      string     `json:"type"` // enclosure type label, e.g. "Dadant"
	Status    HiveStatus `json:"status"`
	Breed     string     `json:"breed"`
	QueenYear int        `json:"queenYear"`
	Color     string     `json:"color"`
	Notes     string     `json:"notes,omitempty"`
}

// Normalize applies text normalization and defaults in place.
func (h *Hive) Normalize() {
	h.Number = NormalizeText(h.Number)
	h.Type = NormalizeText(h.Type)
	h.Breed = NormalizeText(h.Breed)
	h.Color = NormalizeText(h.Color)
	h.Notes = NormalizeText(h.Notes)
	if h.Status == "" {
		h.Status = StatusActive
	}
}

// Validate checks required fields and enumerations.
func (h Hive) Validate() error {
	if h.Number == "" {
		return Invalid("hive", h.ID, "number is required")
	}
	if !h.Status.Valid() {
		return Invalid("hive", h.ID, fmt.Sprintf("unknown status %q", h.Status))
	}
	if h.QueenYear < 0 {
		return Invalid("hive", h.ID, "queen year must not be negative")
	}
	return nil
}

// Box is one segment of a hive's stack.
type Box struct {
	ID       string  `json:"id"`
	HiveID   string  `json:"hiveId"`
	Size     BoxSize `json:"type"`
	Position int     `json:"position"`
	Capacity int     `json:"capacity"`
}

// Frame occupies one slot of a box.
type Frame struct {
	ID       string       `json:"id"`
	BoxID    string       `json:"boxId"`
	HiveID   string       `json:"hiveId"`
	Position int          `json:"position"`
	Content  FrameContent `json:"content"`
}

// BoxWithFrames is a box together with its frames ordered by slot.
type BoxWithFrames struct {
	Box
	Frames []Frame `json:"frames"`
}

// FrameAt returns the frame occupying slot, if any.
func (b BoxWithFrames) FrameAt(slot int) (Frame, bool) {
	for _, f := range b.Frames {
		if f.Position == slot {
			return f, true
		}
	}
	return Frame{}, false
}

// HiveConfiguration is the assembled read view of a hive: its fields plus
// boxes bottom to top, each with frames in slot order.
type HiveConfiguration struct {
	Hive
	Boxes []BoxWithFrames `json:"boxes"`
}

// FrameCount returns the number of frame records across all boxes.
func (c HiveConfiguration) FrameCount() int {
	n := 0
	for _, b := range c.Boxes {
		n += len(b.Frames)
	}
	return n
}

// Inspection is an immutable audit-log entry for a hive.
type Inspection struct {
	ID            string         `json:"id"`
	HiveID        string         `json:"hiveId"`
	Date          time.Time      `json:"date"`
	Kind          InspectionKind `json:"type"`
	QueenSeen     bool           `json:"queenSeen"`
	FramesOfBrood int            `json:"framesOfBrood"`
	HoneyStores   HoneyStores    `json:"honeyStores"`
	Temperament   int            `json:"temperament"`
	Notes         string         `json:"notes"`
}

// Normalize applies text normalization and defaults in place.
func (i *Inspection) Normalize() {
	i.Notes = NormalizeText(i.Notes)
	if i.Kind == "" {
		i.Kind = KindGeneral
	}
}

// Validate checks enumerations and ranges.
func (i Inspection) Validate() error {
	if i.HiveID == "" {
		return Invalid("inspection", i.ID, "hive id is required")
	}
	if !i.Kind.Valid() {
		return Invalid("inspection", i.ID, fmt.Sprintf("unknown kind %q", i.Kind))
	}
	if !i.HoneyStores.Valid() {
		return Invalid("inspection", i.ID, fmt.Sprintf("unknown honey stores %q", i.HoneyStores))
	}
	if i.Temperament < MinTemperament || i.Temperament > MaxTemperament {
		return Invalid("inspection", i.ID, fmt.Sprintf("temperament %d outside %d..%d", i.Temperament, MinTemperament, MaxTemperament))
	}
	if i.FramesOfBrood < 0 {
		return Invalid("inspection", i.ID, "frames of brood must not be negative")
	}
	return nil
}

// Harvest records a honey harvest. Only read and restored from backup.
type Harvest struct {
	ID        string    `json:"id"`
	HiveID    string    `json:"hiveId"`
	Date      time.Time `json:"date"`
	WeightKg  float64   `json:"weightKg"`
	HoneyType string    `json:"honeyType"`
}

// Validate checks required fields.
func (h Harvest) Validate() error {
	if h.HiveID == "" {
		return Invalid("harvest", h.ID, "hive id is required")
	}
	if h.WeightKg < 0 {
		return Invalid("harvest", h.ID, "weight must not be negative")
	}
	return nil
}

// Treatment records a medication course. Only read and restored from backup.
type Treatment struct {
	ID           string     `json:"id"`
	HiveID       string     `json:"hiveId"`
	MedicineName string     `json:"medicineName"`
	DateStart    time.Time  `json:"dateStart"`
	DateEnd      *time.Time `json:"dateEnd,omitempty"`
	Dosage       string     `json:"dosage"`
}

// Validate checks required fields and date ordering.
func (t Treatment) Validate() error {
	if t.HiveID == "" {
		return Invalid("treatment", t.ID, "hive id is required")
	}
	if t.DateEnd != nil && t.DateEnd.Before(t.DateStart) {
		return Invalid("treatment", t.ID, "end date precedes start date")
	}
	return nil
}

// Collections holds the four backed-up collections.
type Collections struct {
	Hives       []Hive       `json:"hives"`
	Inspections []Inspection `json:"inspections"`
	Harvests    []Harvest    `json:"harvests"`
	Treatments  []Treatment  `json:"treatments"`
}

// Summary is the dashboard aggregation over all hives.
type Summary struct {
	TotalHives    int     `json:"totalHives"`
	ActiveHives   int     `json:"activeHives"`
	ArchivedHives int     `json:"archivedHives"`
	Inspections   int     `json:"inspections"`
	HarvestKg     float64 `json:"harvestKg"`
}
