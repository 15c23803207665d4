package domain

import "time"

// Enrollment status values for a voice profile.
const (
	EnrollmentNotEnrolled = "not_enrolled"
	EnrollmentEnrolling   = "enrolling"
	EnrollmentEnrolled    = "enrolled"
)

// RequiredEnrollments is the number of accepted voice samples a profile needs
// before it can be used for verification or identification.
const RequiredEnrollments = 3

// Profile is the local record of a provider-side voice-biometric enrollment.
// ProfileID is assigned by the provider; UserID ties it to a local account.
type Profile struct {
	ProfileID        string    `json:"profile_id" dynamodbav:"profile_id"`
	UserID           string    `json:"user_id" dynamodbav:"user_id"`
	Locale           string    `json:"locale" dynamodbav:"locale"`
	EnrollmentCount  int       `json:"enrollment_count" dynamodbav:"enrollment_count"`
	EnrollmentStatus string    `json:"enrollment_status" dynamodbav:"enrollment_status"`
	AttemptsUsed     int       `json:"-" dynamodbav:"attempts_used"`
	CreatedAt        time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt        time.Time `json:"updated" dynamodbav:"updated_at"`
}

// IsEnrolled reports whether the profile has completed all required
// enrollments and may appear in identification candidate sets.
func (p *Profile) IsEnrolled() bool {
	return p.EnrollmentStatus == EnrollmentEnrolled
}

// RemainingEnrollments returns how many accepted samples are still needed.
func (p *Profile) RemainingEnrollments() int {
	return RequiredEnrollments - p.EnrollmentCount
}
