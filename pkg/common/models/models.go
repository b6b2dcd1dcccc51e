package models

import (
	"time"
)

// Event bus event types
const (
	EventRequestSubmitted = "request.submitted"
	EventRequestMatched   = "request.matched"
	EventRequestAccepted  = "request.accepted"
)

// Event bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// Platform statistics
type Stats struct {
	Donors          int `json:"donors"`
	AvailableDonors int `json:"available_donors"`
	TotalRequests   int `json:"total_requests"`
	ActiveRequests  int `json:"active_requests"`
	Matches         int `json:"matches"`
}

// Match candidates as exposed to API clients and the match cache.
type CandidateView struct {
	DonorID    string  `json:"donor_id"`
	DonorName  string  `json:"donor_name,omitempty"`
	City       string  `json:"city"`
	BloodType  string  `json:"blood_type,omitempty"`
	DistanceKm float64 `json:"distance_km"`
}

type MatchSummary struct {
	RequestID  string          `json:"request_id"`
	Kind       string          `json:"kind"`
	Candidates []CandidateView `json:"candidates"`
	MatchedAt  time.Time       `json:"matched_at"`
}
