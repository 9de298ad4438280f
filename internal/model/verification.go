package model

import "time"

const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
	// VerificationNotSubmitted is reported when a stage has no record yet.
	VerificationNotSubmitted = "not_submitted"
)

const DefaultRejectionFeedback = "verification info incorrect"

// DocumentVerification is the identity-document stage.
type DocumentVerification struct {
	UserID         string    `db:"user_id"`
	RollNo         string    `db:"roll_no"`
	RegNo          string    `db:"reg_no"`
	DocumentFileID string    `db:"document_file_id"`
	IsVerified     bool      `db:"is_verified"`
	Status         string    `db:"status"`
	Feedback       string    `db:"feedback"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// FaceVerification is the face-photo stage.
type FaceVerification struct {
	UserID      string    `db:"user_id"`
	PhotoFileID string    `db:"photo_file_id"`
	IsVerified  bool      `db:"is_verified"`
	Status      string    `db:"status"`
	Feedback    string    `db:"feedback"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// VerificationRecord merges both stages with the profile at read time.
type VerificationRecord struct {
	UserID        string     `json:"user_id"`
	Name          string     `json:"name"`
	InstituteName string     `json:"institute_name"`
	Department    string     `json:"department"`
	RollNo        string     `json:"roll_no"`
	RegNo         string     `json:"reg_no"`
	DocumentURL   string     `json:"document_url,omitempty"`
	FacePhotoURL  string     `json:"face_photo_url,omitempty"`
	DocumentState string     `json:"document_status"`
	FaceState     string     `json:"face_status"`
	Status        string     `json:"status"`
	Feedback      string     `json:"feedback,omitempty"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
}

// CombinedStatus folds the two stage statuses into one.
// Rejected if either stage is rejected, approved only when both are.
func CombinedStatus(document, face string) string {
	switch {
	case document == VerificationRejected || face == VerificationRejected:
		return VerificationRejected
	case document == VerificationApproved && face == VerificationApproved:
		return VerificationApproved
	case document == VerificationNotSubmitted && face == VerificationNotSubmitted:
		return VerificationNotSubmitted
	default:
		return VerificationPending
	}
}
