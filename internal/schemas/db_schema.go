// Package schemas defines the data structures
package schemas

import (
	"time"

	"github.com/google/uuid"
)

// User represents the data model for a user in the system.
type User struct {
	ID          uuid.UUID `json:"id"`           // Unique identifier for the user.
	TokenID     uuid.UUID `json:"-"`            // Identity token, subject of sessions and recovery links.
	Email       string    `json:"email"`        // Email address of the user.
	Password    string    `json:"-"`            // Password hash of the user.
	Active      bool      `json:"active"`       // Set once the email address has been confirmed.
	Admin       bool      `json:"admin"`        // Grants access to the admin panel.
	Name        string    `json:"name"`         // First name of the user.
	LastName    string    `json:"last_name"`    // Last name of the user.
	City        string    `json:"city"`         // City of the postal address.
	ZipCode     string    `json:"zip_code"`     // Zip code of the postal address.
	Street      string    `json:"street"`       // Street of the postal address.
	HouseNumber string    `json:"house_number"` // House number of the postal address.
	FlatNumber  string    `json:"flat_number"`  // Optional flat number of the postal address.
	CreatedAt   time.Time `json:"created_at"`   // Timestamp when the user registered.
}

// ParcelType describes a kind of plot, e.g. a single or a family grave.
type ParcelType struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Capacity int       `json:"capacity"`
	Price    float64   `json:"price"`
}

// Parcel is a physical plot on the cemetery grid.
type Parcel struct {
	ID           uuid.UUID `json:"id"`
	PositionX    int       `json:"position_x"`
	PositionY    int       `json:"position_y"`
	ParcelTypeID uuid.UUID `json:"parcel_type_id"`
}

// Grave is the record of a burial occupying exactly one parcel.
type Grave struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	ParcelID   uuid.UUID `json:"parcel_id"`
	Name       string    `json:"name"`
	LastName   string    `json:"last_name"`
	DayOfBirth time.Time `json:"day_of_birth"`
	DayOfDeath time.Time `json:"day_of_death"`
	CreatedAt  time.Time `json:"created_at"`
}

// Message is an announcement posted by an admin on the main page.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Obituary is a funeral notice posted by an admin.
type Obituary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Surname     string    `json:"surname"`
	YearsOld    int       `json:"years_old"`
	DeathDate   time.Time `json:"death_date"`
	Gender      bool      `json:"gender"` // true for a man
	FuneralDate time.Time `json:"funeral_date"`
	CreatedAt   time.Time `json:"created_at"`
}
