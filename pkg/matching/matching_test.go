package matching

import (
	"errors"
	"testing"

	"github.com/lifelink-health/platform/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine() *Engine {
	return NewEngine(geo.DefaultCatalog(), DefaultBloodMaxDistanceKm, DefaultOrganMaxDistanceKm)
}

func TestCompatibilityReflexive(t *testing.T) {
	for _, bt := range BloodTypes {
		assert.True(t, CanDonate(bt, bt), "%s should accept itself", bt)
	}
}

func TestCompatibilityExtremes(t *testing.T) {
	assert.ElementsMatch(t, BloodTypes, AcceptedDonorTypes(ABPos))
	assert.Equal(t, []BloodType{ONeg}, AcceptedDonorTypes(ONeg))

	for _, bt := range BloodTypes {
		assert.True(t, CanDonate(ONeg, bt), "O- donates to %s", bt)
		if bt != ONeg {
			assert.False(t, CanDonate(bt, ONeg), "%s must not donate to O-", bt)
		}
	}
}

func TestUnknownRecipientAcceptsNothing(t *testing.T) {
	assert.Empty(t, AcceptedDonorTypes("C+"))
	assert.False(t, CanDonate(OPos, "C+"))
	assert.False(t, CanDonate("", OPos))
}

func TestIsCompatible(t *testing.T) {
	blood := Request{Kind: KindBlood, BloodType: APos, City: "Delhi"}
	organ := Request{Kind: KindOrgan, Organ: "kidney", City: "Delhi"}

	tests := []struct {
		name  string
		req   Request
		donor Donor
		want  bool
	}{
		{"compatible blood", blood, Donor{BloodType: ONeg, Available: true}, true},
		{"incompatible blood", blood, Donor{BloodType: BPos, Available: true}, false},
		{"donor without blood type", blood, Donor{Organs: []string{"Kidney"}, Available: true}, false},
		{"unavailable blood donor", blood, Donor{BloodType: APos, Available: false}, false},
		{"organ offered", organ, Donor{Organs: []string{"Heart", "Kidney"}, Available: true}, true},
		{"organ not offered", organ, Donor{Organs: []string{"Heart"}, Available: true}, false},
		{"no organs", organ, Donor{BloodType: OPos, Available: true}, false},
		{"unavailable organ donor", organ, Donor{Organs: []string{"Kidney"}}, false},
		{"unknown kind", Request{Kind: "plasma"}, Donor{BloodType: OPos, Available: true}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsCompatible(tc.req, tc.donor))
		})
	}
}

func TestBloodScenarioOnlyNearbyDonorReturned(t *testing.T) {
	req, err := NewBloodRequest("req-1", "O+", "Delhi", 50)
	require.NoError(t, err)

	donors := []Donor{
		{ID: "d-delhi", City: "Delhi", BloodType: ONeg, Available: true},
		{ID: "d-mumbai", City: "Mumbai", BloodType: OPos, Available: true},
	}

	got, err := newEngine().FindCompatibleDonors(req, donors)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "d-delhi", got[0].DonorID)
	assert.Equal(t, 0.0, got[0].RoundedDistance())
}

func TestOrganScenarioSkipsUnavailableDonor(t *testing.T) {
	req, err := NewOrganRequest("req-2", "Kidney", "Mumbai", 100)
	require.NoError(t, err)

	donors := []Donor{
		{ID: "d-thane", City: "Thane", Organs: []string{"Kidney"}, Available: true},
		{ID: "d-mumbai", City: "Mumbai", Organs: []string{"Kidney"}, Available: false},
	}

	got, err := newEngine().FindCompatibleDonors(req, donors)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "d-thane", got[0].DonorID)
	assert.Greater(t, got[0].DistanceKm, 0.0)
	assert.LessOrEqual(t, got[0].DistanceKm, 100.0)
}

func TestNoDonorOffersOrganReturnsEmptyList(t *testing.T) {
	req, err := NewOrganRequest("req-3", "Pancreas", "Pune", 0)
	require.NoError(t, err)

	donors := []Donor{
		{ID: "d1", City: "Pune", Organs: []string{"Kidney"}, Available: true},
		{ID: "d2", City: "Pimpri", Organs: []string{"Liver", "Cornea"}, Available: true},
	}

	got, err := newEngine().FindCompatibleDonors(req, donors)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestEmptyDonorCollection(t *testing.T) {
	req, err := NewBloodRequest("req-4", "AB+", "Chennai", 0)
	require.NoError(t, err)

	got, err := newEngine().FindCompatibleDonors(req, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResultsSortedAndWithinRange(t *testing.T) {
	req, err := NewBloodRequest("req-5", "AB+", "Mumbai", 200)
	require.NoError(t, err)

	donors := []Donor{
		{ID: "pune", City: "Pune", BloodType: APos, Available: true},
		{ID: "thane", City: "Thane", BloodType: BNeg, Available: true},
		{ID: "mumbai", City: "Mumbai", BloodType: ONeg, Available: true},
		{ID: "pimpri", City: "Pimpri", BloodType: ABNeg, Available: true},
		{ID: "delhi", City: "Delhi", BloodType: OPos, Available: true},
		{ID: "off", City: "Mumbai", BloodType: OPos, Available: false},
	}

	engine := newEngine()
	got, err := engine.FindCompatibleDonors(req, donors)
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for i, c := range got {
		ids = append(ids, c.DonorID)
		assert.True(t, IsCompatible(req, c.Donor))
		assert.LessOrEqual(t, c.DistanceKm, engine.EffectiveMaxDistance(req))
		if i > 0 {
			assert.LessOrEqual(t, got[i-1].DistanceKm, c.DistanceKm)
		}
	}
	assert.Equal(t, []string{"mumbai", "thane", "pimpri", "pune"}, ids)
}

func TestEqualDistancesKeepInsertionOrder(t *testing.T) {
	req, err := NewBloodRequest("req-6", "O+", "Delhi", 0)
	require.NoError(t, err)

	donors := []Donor{
		{ID: "first", City: "Delhi", BloodType: OPos, Available: true},
		{ID: "second", City: "Atlantis", BloodType: ONeg, Available: true},
		{ID: "third", City: "delhi", BloodType: OPos, Available: true},
	}

	got, err := newEngine().FindCompatibleDonors(req, donors)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].DonorID)
	assert.Equal(t, "second", got[1].DonorID)
	assert.Equal(t, "third", got[2].DonorID)
}

func TestEffectiveMaxDistance(t *testing.T) {
	engine := newEngine()

	assert.Equal(t, 50.0, engine.EffectiveMaxDistance(Request{Kind: KindBlood}))
	assert.Equal(t, 100.0, engine.EffectiveMaxDistance(Request{Kind: KindOrgan}))
	assert.Equal(t, 10.0, engine.EffectiveMaxDistance(Request{Kind: KindOrgan, MaxDistanceKm: 10}))

	custom := NewEngine(geo.DefaultCatalog(), 25, 0)
	assert.Equal(t, 25.0, custom.EffectiveMaxDistance(Request{Kind: KindBlood}))
	assert.Equal(t, 100.0, custom.EffectiveMaxDistance(Request{Kind: KindOrgan}))
}

func TestFilterUsesRawDistance(t *testing.T) {
	// Pune-Pimpri is just under 13 km; a limit a hair below the raw value
	// must exclude the donor even though the rounded value might equal it.
	cat := geo.DefaultCatalog()
	raw := cat.DistanceKm("Pune", "Pimpri")

	req := Request{Kind: KindBlood, BloodType: OPos, City: "Pune", MaxDistanceKm: raw - 1e-9}
	donors := []Donor{{ID: "pimpri", City: "Pimpri", BloodType: OPos, Available: true}}

	got, err := newEngine().FindCompatibleDonors(req, donors)
	require.NoError(t, err)
	assert.Empty(t, got)

	req.MaxDistanceKm = raw
	got, err = newEngine().FindCompatibleDonors(req, donors)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, raw, got[0].DistanceKm)
	assert.Equal(t, geo.Round2(raw), got[0].RoundedDistance())
}

func TestMalformedRequests(t *testing.T) {
	_, err := NewBloodRequest("r", "", "Delhi", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.True(t, IsValidationError(err))

	_, err = NewBloodRequest("r", "Z+", "Delhi", 0)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = NewOrganRequest("r", "  ", "Delhi", 0)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = NewOrganRequest("r", "Kidney", "", 0)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = NewBloodRequest("r", "A+", "Delhi", -5)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = newEngine().FindCompatibleDonors(Request{Kind: "plasma", City: "Delhi"}, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestConstructorsNormalise(t *testing.T) {
	req, err := NewBloodRequest("r", " ab- ", " Delhi ", 0)
	require.NoError(t, err)
	assert.Equal(t, ABNeg, req.BloodType)
	assert.Equal(t, "Delhi", req.City)
	assert.Equal(t, RequestStatusActive, req.Status)

	req, err = NewOrganRequest("r", "bone marrow", "Pune", 0)
	require.NoError(t, err)
	assert.Equal(t, "Bone Marrow", req.Organ)
}

func TestParseHelpers(t *testing.T) {
	bt, ok := ParseBloodType(" o- ")
	assert.True(t, ok)
	assert.Equal(t, ONeg, bt)

	_, ok = ParseBloodType("O")
	assert.False(t, ok)

	kind, ok := ParseKind("Organ")
	assert.True(t, ok)
	assert.Equal(t, KindOrgan, kind)

	_, ok = ParseKind("plasma")
	assert.False(t, ok)
}
