package request

import (
	"errors"
	"time"

	"github.com/lifelink-health/platform/pkg/matching"
)

const MatchStatusMatched = "matched"

var (
	ErrNotFound      = errors.New("donation request not found")
	ErrRequestClosed = errors.New("donation request already matched")
)

type Record struct {
	ID             string    `json:"id" gorm:"primaryKey;column:id"`
	PatientName    string    `json:"patient_name" gorm:"column:patient_name"`
	ContactPerson  string    `json:"contact_person" gorm:"column:contact_person"`
	Phone          string    `json:"phone" gorm:"column:phone"`
	Email          string    `json:"email" gorm:"column:email"`
	City           string    `json:"city" gorm:"column:city"`
	Hospital       string    `json:"hospital" gorm:"column:hospital"`
	Kind           string    `json:"type" gorm:"column:kind"`
	BloodType      string    `json:"blood_type,omitempty" gorm:"column:blood_type"`
	Organ          string    `json:"organ,omitempty" gorm:"column:organ"`
	Urgency        string    `json:"urgency" gorm:"column:urgency"`
	Quantity       int       `json:"quantity" gorm:"column:quantity"`
	MaxDistanceKm  float64   `json:"max_distance_km" gorm:"column:max_distance_km"`
	AdditionalInfo string    `json:"additional_info,omitempty" gorm:"column:additional_info"`
	Status         string    `json:"status" gorm:"column:status;index"`
	MatchedDonorID string    `json:"matched_donor_id,omitempty" gorm:"column:matched_donor_id"`
	CreatedAt      time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Record) TableName() string {
	return "donation_requests"
}

// AcceptedMatch is written when a donor accepts a notification.
type AcceptedMatch struct {
	ID        string    `json:"id" gorm:"primaryKey;column:id"`
	DonorID   string    `json:"donor_id" gorm:"column:donor_id"`
	RequestID string    `json:"request_id" gorm:"column:request_id;index"`
	MatchedAt time.Time `json:"matched_at" gorm:"column:matched_at"`
	Status    string    `json:"status" gorm:"column:status"`
}

func (AcceptedMatch) TableName() string {
	return "accepted_matches"
}

// FromMatchRequest copies the matching fields of req onto a new record.
func FromMatchRequest(req matching.Request) Record {
	return Record{
		ID:             req.ID,
		City:           req.City,
		Kind:           string(req.Kind),
		BloodType:      string(req.BloodType),
		Organ:          req.Organ,
		MaxDistanceKm:  req.MaxDistanceKm,
		Status:         req.Status,
		MatchedDonorID: req.MatchedDonorID,
	}
}

// ToMatchRequest rebuilds the validated engine request from the record.
func (r Record) ToMatchRequest() (matching.Request, error) {
	var (
		req matching.Request
		err error
	)
	switch matching.Kind(r.Kind) {
	case matching.KindOrgan:
		req, err = matching.NewOrganRequest(r.ID, r.Organ, r.City, r.MaxDistanceKm)
	default:
		req, err = matching.NewBloodRequest(r.ID, r.BloodType, r.City, r.MaxDistanceKm)
	}
	if err != nil {
		return matching.Request{}, err
	}
	if r.Status != "" {
		req.Status = r.Status
	}
	req.MatchedDonorID = r.MatchedDonorID
	return req, nil
}
