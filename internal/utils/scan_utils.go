package utils

import (
	"github.com/jackc/pgx/v5"

	"graveyard-manager/internal/schemas"
)

// UserColumns is the column list matching ScanUser.
const UserColumns = "user_id, token_id, email, password, active, admin, name, last_name, city, zip_code, street, house_number, flat_number, created_at"

// ScanUser reads a row selected with UserColumns.
func ScanUser(row pgx.Row) (*schemas.User, error) {
	user := &schemas.User{}
	err := row.Scan(&user.ID, &user.TokenID, &user.Email, &user.Password, &user.Active, &user.Admin,
		&user.Name, &user.LastName, &user.City, &user.ZipCode, &user.Street, &user.HouseNumber, &user.FlatNumber, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}
