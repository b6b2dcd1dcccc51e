package donor

import (
	"errors"
	"time"

	"github.com/lifelink-health/platform/pkg/matching"
	"gorm.io/datatypes"
)

var ErrNotFound = errors.New("donor not found")

type Record struct {
	ID             string                      `json:"id" gorm:"primaryKey;column:id"`
	Name           string                      `json:"name" gorm:"column:name"`
	Email          string                      `json:"email" gorm:"column:email"`
	Phone          string                      `json:"phone" gorm:"column:phone"`
	Age            int                         `json:"age" gorm:"column:age"`
	Gender         string                      `json:"gender" gorm:"column:gender"`
	City           string                      `json:"city" gorm:"column:city;index"`
	Address        string                      `json:"address" gorm:"column:address"`
	BloodType      string                      `json:"blood_type,omitempty" gorm:"column:blood_type"`
	Organs         datatypes.JSONSlice[string] `json:"organs" gorm:"column:organs"`
	MedicalHistory string                      `json:"medical_history,omitempty" gorm:"column:medical_history"`
	LastDonation   *time.Time                  `json:"last_donation,omitempty" gorm:"column:last_donation"`
	Available      bool                        `json:"available" gorm:"column:available"`
	RegisteredAt   time.Time                   `json:"registered_at" gorm:"column:registered_at"`
}

func (Record) TableName() string {
	return "donors"
}

// ToMatchDonor projects the record onto the fields the match engine reads.
func (r Record) ToMatchDonor() matching.Donor {
	organs := make([]string, len(r.Organs))
	copy(organs, r.Organs)
	bt, _ := matching.ParseBloodType(r.BloodType)
	return matching.Donor{
		ID:        r.ID,
		Name:      r.Name,
		City:      r.City,
		BloodType: bt,
		Organs:    organs,
		Available: r.Available,
	}
}

func MatchDonors(records []Record) []matching.Donor {
	out := make([]matching.Donor, 0, len(records))
	for _, r := range records {
		out = append(out, r.ToMatchDonor())
	}
	return out
}

func (r Record) clone() Record {
	c := r
	if r.Organs != nil {
		c.Organs = append(datatypes.JSONSlice[string]{}, r.Organs...)
	}
	if r.LastDonation != nil {
		ld := *r.LastDonation
		c.LastDonation = &ld
	}
	return c
}
