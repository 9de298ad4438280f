package model

import "time"

type Profile struct {
	UserID        string    `db:"user_id" json:"-"`
	Name          string    `db:"name" json:"name"`
	RollNumber    string    `db:"roll_number" json:"roll_number"`
	Semester      string    `db:"semester" json:"semester"`
	Department    string    `db:"department" json:"department"`
	InstituteName string    `db:"institute_name" json:"institute_name"`
	Phone         string    `db:"phone" json:"phone"`
	IsBanned      bool      `db:"is_banned" json:"is_banned"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	AvatarURL string `db:"-" json:"avatar_url,omitempty"`
}

// IsComplete reports whether the registration fields are filled in.
func (p *Profile) IsComplete() bool {
	return p.Name != "" && p.RollNumber != "" && p.Semester != "" &&
		p.Department != "" && p.InstituteName != ""
}

// MergedInto returns the profile that results from carrying p over to the
// account newUserID. Non-empty fields of p win over target; target may be nil
// when the new account has no profile yet. CreatedAt comes from p.
func (p *Profile) MergedInto(target *Profile, newUserID string, now time.Time) *Profile {
	merged := &Profile{UserID: newUserID}
	if target != nil {
		*merged = *target
		merged.UserID = newUserID
	}

	merged.Name = pick(p.Name, merged.Name)
	merged.RollNumber = pick(p.RollNumber, merged.RollNumber)
	merged.Semester = pick(p.Semester, merged.Semester)
	merged.Department = pick(p.Department, merged.Department)
	merged.InstituteName = pick(p.InstituteName, merged.InstituteName)
	merged.Phone = pick(p.Phone, merged.Phone)
	merged.IsBanned = p.IsBanned || merged.IsBanned
	merged.AvatarURL = pick(p.AvatarURL, merged.AvatarURL)

	merged.CreatedAt = p.CreatedAt
	if merged.CreatedAt.IsZero() {
		merged.CreatedAt = now
	}
	merged.UpdatedAt = now

	return merged
}

func pick(preferred, fallback string) string {
	if preferred != "" {
		return preferred
	}
	return fallback
}
