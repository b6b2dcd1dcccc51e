package sampledata

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/lifelink-health/platform/pkg/donation"
	"github.com/lifelink-health/platform/pkg/matching"
)

var (
	donorNames = []string{
		"Arjun Sharma", "Priya Patel", "Rajesh Kumar", "Sneha Gupta", "Amit Singh",
		"Kavya Reddy", "Rohit Verma", "Anita Joshi", "Vikram Malhotra", "Deepika Nair",
		"Sanjay Yadav", "Meera Shah", "Akash Agarwal", "Pooja Mishra", "Ravi Tiwari",
		"Sunita Rao", "Manish Kapoor", "Asha Bhatt", "Kiran Kumar", "Neha Bansal",
	}
	streets         = []string{"MG Road", "Park Street", "Mall Road", "Station Road"}
	medicalHistory  = []string{"", "No significant medical history", "Hypertension controlled with medication", "Diabetic, well controlled", "Occasional allergies"}
	hospitals       = []string{"Apollo Hospital", "Fortis Healthcare", "Max Hospital", "AIIMS", "Manipal Hospital", "Narayana Health"}
	urgencies       = []string{"critical", "high", "medium", "low"}
	maxOrgansOffers = 4
)

// Generator produces plausible donors and requests for demos and load tests.
type Generator struct {
	rng    *rand.Rand
	cities []string
	now    time.Time
}

func NewGenerator(seed int64, cities []string, now time.Time) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed)), cities: cities, now: now}
}

func (g *Generator) pick(options []string) string {
	return options[g.rng.Intn(len(options))]
}

func (g *Generator) Donor() donation.RegisterDonorInput {
	name := g.pick(donorNames)
	city := g.pick(g.cities)

	organs := make([]string, 0, maxOrgansOffers)
	for _, idx := range g.rng.Perm(len(matching.Organs))[:g.rng.Intn(maxOrgansOffers+1)] {
		organs = append(organs, matching.Organs[idx])
	}

	var lastDonation string
	if g.rng.Intn(2) == 0 {
		lastDonation = g.now.AddDate(0, 0, -(30 + g.rng.Intn(336))).Format("2006-01-02")
	}

	// three in four donors are available
	available := g.rng.Intn(4) != 0

	handle := strings.ToLower(strings.ReplaceAll(name, " ", ""))
	return donation.RegisterDonorInput{
		Name:           name,
		Email:          fmt.Sprintf("%s%d@email.com", handle, 10+g.rng.Intn(90)),
		Phone:          fmt.Sprintf("+91-%d%d%d", 70+g.rng.Intn(30), 1000+g.rng.Intn(9000), 1000+g.rng.Intn(9000)),
		Age:            18 + g.rng.Intn(43),
		Gender:         g.pick([]string{"male", "female"}),
		City:           city,
		Address:        fmt.Sprintf("%d %s, %s", 1+g.rng.Intn(999), g.pick(streets), city),
		BloodType:      matching.BloodTypes[g.rng.Intn(len(matching.BloodTypes))].String(),
		Organs:         organs,
		MedicalHistory: g.pick(medicalHistory),
		LastDonation:   lastDonation,
		Available:      &available,
	}
}

func (g *Generator) Donors(n int) []donation.RegisterDonorInput {
	out := make([]donation.RegisterDonorInput, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, g.Donor())
	}
	return out
}

func (g *Generator) Request() donation.SubmitRequestInput {
	in := donation.SubmitRequestInput{
		PatientName:   g.pick(donorNames),
		ContactPerson: g.pick(donorNames),
		City:          g.pick(g.cities),
		Hospital:      g.pick(hospitals),
		Urgency:       g.pick(urgencies),
		Quantity:      1 + g.rng.Intn(3),
	}
	if g.rng.Intn(2) == 0 {
		in.Type = string(matching.KindBlood)
		in.BloodType = matching.BloodTypes[g.rng.Intn(len(matching.BloodTypes))].String()
		in.MaxDistanceKm = matching.DefaultBloodMaxDistanceKm
	} else {
		in.Type = string(matching.KindOrgan)
		in.Organ = g.pick(matching.Organs)
		in.MaxDistanceKm = matching.DefaultOrganMaxDistanceKm
	}
	return in
}
