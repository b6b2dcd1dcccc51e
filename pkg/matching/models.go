package matching

import (
	"strings"

	"github.com/lifelink-health/platform/pkg/geo"
)

type BloodType string

const (
	APos  BloodType = "A+"
	ANeg  BloodType = "A-"
	BPos  BloodType = "B+"
	BNeg  BloodType = "B-"
	ABPos BloodType = "AB+"
	ABNeg BloodType = "AB-"
	OPos  BloodType = "O+"
	ONeg  BloodType = "O-"
)

// BloodTypes lists every blood type in display order.
var BloodTypes = []BloodType{APos, ANeg, BPos, BNeg, ABPos, ABNeg, OPos, ONeg}

// ParseBloodType normalises s and reports whether it names a blood type.
func ParseBloodType(s string) (BloodType, bool) {
	bt := BloodType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range BloodTypes {
		if bt == known {
			return bt, true
		}
	}
	return "", false
}

func (b BloodType) String() string {
	return string(b)
}

type Kind string

const (
	KindBlood Kind = "blood"
	KindOrgan Kind = "organ"
)

func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindBlood:
		return KindBlood, true
	case KindOrgan:
		return KindOrgan, true
	}
	return "", false
}

const (
	RequestStatusActive  = "active"
	RequestStatusMatched = "matched"
)

// Organs offered on registration forms.
var Organs = []string{"Heart", "Kidney", "Liver", "Lungs", "Pancreas", "Cornea", "Bone Marrow", "Skin"}

// CanonicalOrgan maps s onto the known organ spelling when it matches one,
// otherwise it returns s trimmed.
func CanonicalOrgan(s string) string {
	trimmed := strings.TrimSpace(s)
	for _, organ := range Organs {
		if strings.EqualFold(organ, trimmed) {
			return organ
		}
	}
	return trimmed
}

// Donor is the read-only view of a registered donor used by the engine.
type Donor struct {
	ID        string
	Name      string
	City      string
	BloodType BloodType
	Organs    []string
	Available bool
}

func (d Donor) Offers(organ string) bool {
	want := strings.TrimSpace(organ)
	if want == "" {
		return false
	}
	for _, o := range d.Organs {
		if strings.EqualFold(strings.TrimSpace(o), want) {
			return true
		}
	}
	return false
}

// Request is a blood or organ request. Kind selects which of BloodType and
// Organ is meaningful; use NewBloodRequest or NewOrganRequest to build one.
type Request struct {
	ID             string
	Kind           Kind
	BloodType      BloodType
	Organ          string
	City           string
	MaxDistanceKm  float64
	Status         string
	MatchedDonorID string
}

// Candidate is a donor that passed compatibility and distance checks.
type Candidate struct {
	DonorID    string
	Donor      Donor
	DistanceKm float64
}

// RoundedDistance is the distance reported to users.
func (c Candidate) RoundedDistance() float64 {
	return geo.Round2(c.DistanceKm)
}
