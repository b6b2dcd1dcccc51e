package matching

import (
	"sort"
)

const (
	DefaultBloodMaxDistanceKm = 50.0
	DefaultOrganMaxDistanceKm = 100.0
)

// DistanceRanker resolves the distance between two cities in kilometres.
type DistanceRanker interface {
	DistanceKm(cityA, cityB string) float64
}

type Engine struct {
	ranker       DistanceRanker
	bloodMaxDist float64
	organMaxDist float64
}

func NewEngine(ranker DistanceRanker, bloodMaxDistanceKm, organMaxDistanceKm float64) *Engine {
	if bloodMaxDistanceKm <= 0 {
		bloodMaxDistanceKm = DefaultBloodMaxDistanceKm
	}
	if organMaxDistanceKm <= 0 {
		organMaxDistanceKm = DefaultOrganMaxDistanceKm
	}
	return &Engine{ranker: ranker, bloodMaxDist: bloodMaxDistanceKm, organMaxDist: organMaxDistanceKm}
}

// EffectiveMaxDistance is the request override when set, else the default
// for the request kind.
func (e *Engine) EffectiveMaxDistance(req Request) float64 {
	if req.MaxDistanceKm > 0 {
		return req.MaxDistanceKm
	}
	if req.Kind == KindOrgan {
		return e.organMaxDist
	}
	return e.bloodMaxDist
}

// FindCompatibleDonors returns the available, compatible donors within the
// request's effective max distance, nearest first. Donors at equal distance
// keep their order in donors. No match yields an empty slice, not an error.
func (e *Engine) FindCompatibleDonors(req Request, donors []Donor) ([]Candidate, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	maxDist := e.EffectiveMaxDistance(req)
	candidates := make([]Candidate, 0)
	for _, d := range donors {
		if !d.Available {
			continue
		}
		if !IsCompatible(req, d) {
			continue
		}
		distance := e.ranker.DistanceKm(req.City, d.City)
		if distance > maxDist {
			continue
		}
		candidates = append(candidates, Candidate{DonorID: d.ID, Donor: d, DistanceKm: distance})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].DistanceKm < candidates[j].DistanceKm
	})
	return candidates, nil
}
