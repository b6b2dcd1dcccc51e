package donation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lifelink-health/platform/pkg/donor"
	"github.com/lifelink-health/platform/pkg/matching"
	"github.com/lifelink-health/platform/pkg/request"
	"gorm.io/datatypes"
)

var (
	errMissingName    = errors.New("name required")
	errMissingCity    = errors.New("city required")
	errNothingOffered = errors.New("donor must offer a blood type or at least one organ")
	errInvalidAge     = errors.New("age must not be negative")
)

type RegisterDonorInput struct {
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone"`
	Age            int      `json:"age"`
	Gender         string   `json:"gender"`
	City           string   `json:"city"`
	Address        string   `json:"address"`
	BloodType      string   `json:"blood_type,omitempty"`
	Organs         []string `json:"organs,omitempty"`
	MedicalHistory string   `json:"medical_history,omitempty"`
	LastDonation   string   `json:"last_donation,omitempty"` // YYYY-MM-DD
	Available      *bool    `json:"available,omitempty"`
}

func (in RegisterDonorInput) toRecord(id string, now time.Time) (*donor.Record, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, matching.NewValidationError(errMissingName)
	}
	city := strings.TrimSpace(in.City)
	if city == "" {
		return nil, matching.NewValidationError(errMissingCity)
	}
	if in.Age < 0 {
		return nil, matching.NewValidationError(errInvalidAge)
	}

	var bloodType string
	if strings.TrimSpace(in.BloodType) != "" {
		bt, ok := matching.ParseBloodType(in.BloodType)
		if !ok {
			return nil, matching.NewValidationError(fmt.Errorf("blood type %q not recognised", in.BloodType))
		}
		bloodType = bt.String()
	}

	organs := make(datatypes.JSONSlice[string], 0, len(in.Organs))
	seen := make(map[string]struct{})
	for _, o := range in.Organs {
		organ := matching.CanonicalOrgan(o)
		if organ == "" {
			continue
		}
		key := strings.ToLower(organ)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		organs = append(organs, organ)
	}
	if bloodType == "" && len(organs) == 0 {
		return nil, matching.NewValidationError(errNothingOffered)
	}

	var lastDonation *time.Time
	if ld := strings.TrimSpace(in.LastDonation); ld != "" {
		parsed, err := time.Parse("2006-01-02", ld)
		if err != nil {
			return nil, matching.NewValidationError(fmt.Errorf("last donation date %q: %w", ld, err))
		}
		lastDonation = &parsed
	}

	available := true
	if in.Available != nil {
		available = *in.Available
	}

	return &donor.Record{
		ID:             id,
		Name:           name,
		Email:          strings.TrimSpace(in.Email),
		Phone:          strings.TrimSpace(in.Phone),
		Age:            in.Age,
		Gender:         strings.TrimSpace(in.Gender),
		City:           city,
		Address:        strings.TrimSpace(in.Address),
		BloodType:      bloodType,
		Organs:         organs,
		MedicalHistory: in.MedicalHistory,
		LastDonation:   lastDonation,
		Available:      available,
		RegisteredAt:   now,
	}, nil
}

type SubmitRequestInput struct {
	PatientName    string  `json:"patient_name"`
	ContactPerson  string  `json:"contact_person"`
	Phone          string  `json:"phone"`
	Email          string  `json:"email"`
	City           string  `json:"city"`
	Hospital       string  `json:"hospital"`
	Type           string  `json:"type"`
	BloodType      string  `json:"blood_type,omitempty"`
	Organ          string  `json:"organ,omitempty"`
	Urgency        string  `json:"urgency"`
	Quantity       int     `json:"quantity,omitempty"`
	MaxDistanceKm  float64 `json:"max_distance_km,omitempty"`
	AdditionalInfo string  `json:"additional_info,omitempty"`
}

func (in SubmitRequestInput) toRecord(id string, now time.Time) (*request.Record, matching.Request, error) {
	kind, ok := matching.ParseKind(in.Type)
	if !ok {
		return nil, matching.Request{}, matching.NewValidationError(
			fmt.Errorf("%w: request type %q must be blood or organ", matching.ErrInvalidRequest, in.Type))
	}

	var (
		req matching.Request
		err error
	)
	if kind == matching.KindBlood {
		req, err = matching.NewBloodRequest(id, in.BloodType, in.City, in.MaxDistanceKm)
	} else {
		req, err = matching.NewOrganRequest(id, in.Organ, in.City, in.MaxDistanceKm)
	}
	if err != nil {
		return nil, matching.Request{}, err
	}

	quantity := in.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	rec := request.FromMatchRequest(req)
	rec.PatientName = strings.TrimSpace(in.PatientName)
	rec.ContactPerson = strings.TrimSpace(in.ContactPerson)
	rec.Phone = strings.TrimSpace(in.Phone)
	rec.Email = strings.TrimSpace(in.Email)
	rec.Hospital = strings.TrimSpace(in.Hospital)
	rec.Urgency = strings.TrimSpace(in.Urgency)
	rec.Quantity = quantity
	rec.AdditionalInfo = in.AdditionalInfo
	rec.CreatedAt = now
	return &rec, req, nil
}
