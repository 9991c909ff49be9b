package schemas

// CustomError is a user-facing error with a stable code.
// Message is the text shown to the user, Code identifies the error kind.
type CustomError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *CustomError) Error() string {
	return e.Code + ": " + e.Message
}

var (
	// Validation errors, rendered inline.
	BadRequest       = &CustomError{Message: "The submitted form is invalid. Please check the marked fields and try again.", Code: "ERR-001"}
	EmailUnreachable = &CustomError{Message: "The email address is unreachable. Please use another address.", Code: "ERR-002"}

	// Authentication errors, shown as flash message.
	InvalidCredentials = &CustomError{Message: "Invalid email or password!", Code: "ERR-003"}
	InvalidOldPassword = &CustomError{Message: "The given password is incorrect!", Code: "ERR-004"}
	Unauthorized       = &CustomError{Message: "You have to log in first!", Code: "ERR-005"}

	// Token errors, expired, tampered and malformed links look the same to the user.
	LinkInactive = &CustomError{Message: "The given link is inactive!", Code: "ERR-006"}

	// Conflicts.
	EmailTaken           = &CustomError{Message: "The email address is already in use!", Code: "ERR-007"}
	AccountAlreadyActive = &CustomError{Message: "The account is already active!", Code: "ERR-008"}
	ParcelOccupied       = &CustomError{Message: "This parcel is already occupied!", Code: "ERR-009"}

	NotFound = &CustomError{Message: "The requested page does not exist.", Code: "ERR-010"}

	// Server side failures.
	DatabaseError       = &CustomError{Message: "A database error occurred. Please try again later.", Code: "ERR-011"}
	EmailNotSent        = &CustomError{Message: "The email could not be sent. Please try again later.", Code: "ERR-012"}
	InternalServerError = &CustomError{Message: "An unexpected error occurred. Please try again later.", Code: "ERR-013"}
)
