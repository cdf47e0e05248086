package domain

import "time"

type Temple struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderAll    Gender = "ALL"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderAll
}

// Profile is a person record, distinct from login credentials. Every profile
// belongs to exactly one temple.
type Profile struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Gender      Gender    `json:"gender"`
	DateOfBirth time.Time `json:"date_of_birth"`
	TempleID    int64     `json:"temple_id"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// AgeAt returns the age in completed years on the given day. Age is never
// stored.
func (p *Profile) AgeAt(now time.Time) int {
	dob := p.DateOfBirth
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
