package schemas

// Flash is a one-shot message carried to the next rendered page
// Category is either "success" or "error"
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Code     string `json:"code,omitempty"`
}

// FieldErrorDTO describes a single failed form field
// Field is the form name of the field, Rule the violated validation rule
type FieldErrorDTO struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// PageDTO is the model of every rendered page
// Page names the template, User is nil for anonymous visitors
type PageDTO struct {
	Page    string          `json:"page"`
	Flashes []Flash         `json:"flashes"`
	User    *UserDTO        `json:"user"`
	Error   *CustomError    `json:"error,omitempty"`
	Errors  []FieldErrorDTO `json:"errors,omitempty"`
	Data    interface{}     `json:"data,omitempty"`
}

// UserDTO is a struct that represents the logged in user
type UserDTO struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	LastName    string `json:"last_name"`
	City        string `json:"city"`
	ZipCode     string `json:"zip_code"`
	Street      string `json:"street"`
	HouseNumber string `json:"house_number"`
	FlatNumber  string `json:"flat_number"`
	Admin       bool   `json:"admin"`
}

// NewUserDTO builds the public view of a user
func NewUserDTO(user *User) *UserDTO {
	if user == nil {
		return nil
	}
	return &UserDTO{
		Email:       user.Email,
		Name:        user.Name,
		LastName:    user.LastName,
		City:        user.City,
		ZipCode:     user.ZipCode,
		Street:      user.Street,
		HouseNumber: user.HouseNumber,
		FlatNumber:  user.FlatNumber,
		Admin:       user.Admin,
	}
}

// IndexDTO is the data of the main page
type IndexDTO struct {
	Messages   []Message  `json:"messages"`
	Obituaries []Obituary `json:"obituaries"`
}

// LoginDTO is the data of the login page
// Next is the validated page to return to after logging in
type LoginDTO struct {
	Next string `json:"next,omitempty"`
}

// ParcelDTO is a parcel on the user page together with its occupancy
type ParcelDTO struct {
	Parcel
	Occupied bool `json:"occupied"`
}

// UserPageDTO is the data of the user panel
// MaxPositionX is the width of the cemetery grid
type UserPageDTO struct {
	Graves       []Grave     `json:"graves"`
	Parcels      []ParcelDTO `json:"parcels"`
	MaxPositionX int         `json:"max_p"`
}

// ParcelPageDTO is the data of the add grave page
type ParcelPageDTO struct {
	Parcel     Parcel     `json:"parcel"`
	ParcelType ParcelType `json:"parcel_type"`
}

// GravePageDTO is the data of the grave page
type GravePageDTO struct {
	Grave      Grave      `json:"grave"`
	Parcel     Parcel     `json:"parcel"`
	ParcelType ParcelType `json:"parcel_type"`
}

// AdminPageDTO is the data of the admin panel
type AdminPageDTO struct {
	Messages    []Message  `json:"messages"`
	Obituaries  []Obituary `json:"obituaries"`
	ActiveUsers int        `json:"active_users"`
}

// BroadcastResultDTO reports the outcome of an email broadcast
type BroadcastResultDTO struct {
	Recipients int `json:"recipients"`
	Failed     int `json:"failed"`
}
