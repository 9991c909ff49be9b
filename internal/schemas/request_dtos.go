// Package schemas defines the request structures for various operations in the application.
package schemas

// Fields tagged with sanitize:"-" are passed to the handler untouched,
// every other string field is stripped of markup before validation.

// LoginRequest is a struct that represents a login form
// Email is required and must be a valid email
// Password is required
type LoginRequest struct {
	Email    string `form:"email" validate:"required,email,max=120"`
	Password string `form:"password" sanitize:"-" validate:"required,max=72"`
}

// EmailRequest is a struct that represents a password recovery form
type EmailRequest struct {
	Email string `form:"email" validate:"required,email,max=120"`
}

// ProfileData holds the personal data of a user
// FlatNumber is the only optional field
type ProfileData struct {
	Name        string `form:"name" validate:"required,max=50"`
	LastName    string `form:"last_name" validate:"required,max=50"`
	City        string `form:"city" validate:"required,max=50"`
	ZipCode     string `form:"zip_code" validate:"required,zip_code_validation"`
	Street      string `form:"street" validate:"required,max=80"`
	HouseNumber string `form:"house_number" validate:"required,max=10"`
	FlatNumber  string `form:"flat_number" validate:"max=10"`
}

// NewPassword holds a new password and its confirmation
// Password must be at least 8 characters and contain upper and lower case letters, a digit and a special character
type NewPassword struct {
	Password        string `form:"password" sanitize:"-" validate:"required,min=8,max=72,password_validation"`
	PasswordConfirm string `form:"password_confirm" sanitize:"-" validate:"required,eqfield=Password"`
}

// RegistrationRequest is a struct that represents a registration form
type RegistrationRequest struct {
	Email string `form:"email" validate:"required,email,max=120"`
	NewPassword
	ProfileData
}

// ChangePasswordRequest is a struct that represents a password change form
// OldPassword must match the current password
type ChangePasswordRequest struct {
	OldPassword string `form:"old_password" sanitize:"-" validate:"required,max=72"`
	NewPassword
}

// ChangeDataRequest is a struct that represents a personal data change form
// OldPassword must match the current password
type ChangeDataRequest struct {
	OldPassword string `form:"old_password" sanitize:"-" validate:"required,max=72"`
	ProfileData
}

// GraveRequest is a struct that represents a new grave form
// Dates must be given as YYYY-MM-DD
type GraveRequest struct {
	Name       string `form:"name" validate:"required,max=50"`
	LastName   string `form:"last_name" validate:"required,max=50"`
	DayOfBirth string `form:"day_of_birth" validate:"required,datetime=2006-01-02"`
	DayOfDeath string `form:"day_of_death" validate:"required,datetime=2006-01-02"`
}

// EditGraveRequest is a struct that represents the grave edit form
type EditGraveRequest struct {
	Name       string `form:"edited_name" validate:"required,max=50"`
	LastName   string `form:"edited_last_name" validate:"required,max=50"`
	DayOfBirth string `form:"edited_birth" validate:"required,datetime=2006-01-02"`
	DayOfDeath string `form:"edited_death" validate:"required,datetime=2006-01-02"`
}

// AdminAction selects which of the admin panel forms was submitted
type AdminAction string

const (
	ActionPostMessage    AdminAction = "post_message"
	ActionBroadcastEmail AdminAction = "broadcast_email"
	ActionCreateObituary AdminAction = "create_obituary"
)

// AdminActionRequest carries the explicit action of an admin panel submission
type AdminActionRequest struct {
	Action AdminAction `form:"action" validate:"required,oneof=post_message broadcast_email create_obituary"`
}

// MessageRequest is a struct that represents a new or edited announcement
type MessageRequest struct {
	Title   string `form:"post_header" validate:"required,max=120"`
	Content string `form:"post_content" validate:"required,max=5000"`
}

// BroadcastRequest is a struct that represents an email sent to all active users
type BroadcastRequest struct {
	Title   string `form:"email_title" validate:"required,max=120"`
	Content string `form:"email_content" validate:"required,max=10000"`
}

// ObituaryRequest is a struct that represents a new or edited obituary
// FuneralDate and FuneralTime are combined into a single timestamp
// YearsOld is bound as text so an empty field is rejected instead of read as 0
type ObituaryRequest struct {
	Name        string `form:"name" validate:"required,max=50"`
	Surname     string `form:"surname" validate:"required,max=50"`
	DeathDate   string `form:"death_date" validate:"required,datetime=2006-01-02"`
	YearsOld    string `form:"years_old" validate:"required,number,max=3"`
	Gender      string `form:"gender" validate:"required,oneof=man woman"`
	FuneralDate string `form:"funeral_date" validate:"required,datetime=2006-01-02"`
	FuneralTime string `form:"funeral_time" validate:"required,datetime=15:04"`
}
