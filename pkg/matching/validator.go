package matching

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRequest  = errors.New("invalid request")
	errMissingCity     = errors.New("city required")
	errMissingOrgan    = errors.New("organ required")
	errInvalidKind     = errors.New("request type must be blood or organ")
	errNegativeMaxDist = errors.New("max distance must not be negative")
)

type ValidationError struct {
	reason error
}

func (e ValidationError) Error() string {
	return e.reason.Error()
}

func (e ValidationError) Unwrap() error {
	return e.reason
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// NewValidationError marks reason as a caller-side input error.
func NewValidationError(reason error) error {
	return ValidationError{reason: reason}
}

func invalid(err error) error {
	return NewValidationError(fmt.Errorf("%w: %w", ErrInvalidRequest, err))
}

func NewBloodRequest(id, bloodType, city string, maxDistanceKm float64) (Request, error) {
	req := Request{
		ID:            id,
		Kind:          KindBlood,
		BloodType:     BloodType(strings.ToUpper(strings.TrimSpace(bloodType))),
		City:          strings.TrimSpace(city),
		MaxDistanceKm: maxDistanceKm,
		Status:        RequestStatusActive,
	}
	if err := Validate(req); err != nil {
		return Request{}, err
	}
	return req, nil
}

func NewOrganRequest(id, organ, city string, maxDistanceKm float64) (Request, error) {
	req := Request{
		ID:            id,
		Kind:          KindOrgan,
		Organ:         CanonicalOrgan(organ),
		City:          strings.TrimSpace(city),
		MaxDistanceKm: maxDistanceKm,
		Status:        RequestStatusActive,
	}
	if err := Validate(req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Validate checks the fields a request of its kind must carry.
func Validate(req Request) error {
	if strings.TrimSpace(req.City) == "" {
		return invalid(errMissingCity)
	}
	if req.MaxDistanceKm < 0 {
		return invalid(errNegativeMaxDist)
	}
	switch req.Kind {
	case KindBlood:
		if _, ok := ParseBloodType(string(req.BloodType)); !ok {
			return invalid(fmt.Errorf("blood type %q not recognised", req.BloodType))
		}
	case KindOrgan:
		if strings.TrimSpace(req.Organ) == "" {
			return invalid(errMissingOrgan)
		}
	default:
		return invalid(errInvalidKind)
	}
	return nil
}
