package utils

const (
	// TokenKey is the key for the signed link token used in routing parameters.
	TokenKey = "token"

	// ParcelIdKey is the key for parcel ID used in routing parameters.
	ParcelIdKey = "parcel_id"

	// GraveIdKey is the key for grave ID used in routing parameters.
	GraveIdKey = "grave_id"

	// IdKey is the key for message and obituary IDs used in routing parameters.
	IdKey = "id"

	// NextParamKey is the key for the page to return to after logging in.
	NextParamKey = "next"
)
