package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"graveyard-manager/internal/managers"
	"graveyard-manager/internal/middleware"
	"graveyard-manager/internal/schemas"
	"graveyard-manager/internal/utils"
)

const graveColumns = "grave_id, user_id, parcel_id, name, last_name, day_of_birth, day_of_death, created_at"

type GraveHdl interface {
	AddGravePage(c *gin.Context, user *schemas.User)
	AddGrave(c *gin.Context, user *schemas.User)
	GravePage(c *gin.Context, user *schemas.User)
	EditGrave(c *gin.Context, user *schemas.User)
	DeleteGrave(c *gin.Context, user *schemas.User)
}

type GraveHandler struct {
	DatabaseManager managers.DatabaseMgr
}

func NewGraveHandler(databaseManager managers.DatabaseMgr) GraveHdl {
	return &GraveHandler{DatabaseManager: databaseManager}
}

// AddGravePage renders the form for a new grave on a free parcel.
func (handler *GraveHandler) AddGravePage(c *gin.Context, _ *schemas.User) {
	parcelId, ok := parseIdParam(c, utils.ParcelIdKey)
	if !ok {
		return
	}

	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel)

	page := &schemas.ParcelPageDTO{}
	var occupied bool
	queryString := "SELECT p.parcel_id, p.position_x, p.position_y, p.parcel_type_id, t.name, t.capacity, t.price, " +
		"EXISTS(SELECT 1 FROM graves g WHERE g.parcel_id = p.parcel_id) " +
		"FROM parcels p JOIN parcel_types t ON t.parcel_type_id = p.parcel_type_id WHERE p.parcel_id = $1"
	err := tx.QueryRow(transactionCtx, queryString, parcelId).Scan(&page.Parcel.ID, &page.Parcel.PositionX, &page.Parcel.PositionY,
		&page.Parcel.ParcelTypeID, &page.ParcelType.Name, &page.ParcelType.Capacity, &page.ParcelType.Price, &occupied)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.RenderNotFound(c)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	page.ParcelType.ID = page.Parcel.ParcelTypeID

	if occupied {
		utils.RedirectWithError(c, schemas.ParcelOccupied, "/user", errors.New("parcel occupied"))
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx); err != nil {
		return
	}

	utils.RenderPage(c, "add_grave", page, http.StatusOK)
}

// AddGrave records a grave on the parcel. The parcel row stays locked until the grave is inserted,
// and the unique index on graves.parcel_id rejects anything that slips past the lock.
func (handler *GraveHandler) AddGrave(c *gin.Context, user *schemas.User) {
	parcelId, ok := parseIdParam(c, utils.ParcelIdKey)
	if !ok {
		return
	}

	graveRequest := middleware.Payload[schemas.GraveRequest](c)
	dayOfBirth, dayOfDeath, fieldErrors := parseDates(graveRequest.DayOfBirth, graveRequest.DayOfDeath, "day_of_birth", "day_of_death")
	if fieldErrors != nil {
		utils.RenderFormErrors(c, "add_grave", schemas.BadRequest, fieldErrors)
		return
	}

	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel)

	// Lock the parcel
	queryString := "SELECT parcel_id FROM parcels WHERE parcel_id = $1 FOR UPDATE"
	if err := tx.QueryRow(transactionCtx, queryString, parcelId).Scan(&parcelId); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.RenderNotFound(c)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	var occupied bool
	queryString = "SELECT EXISTS(SELECT 1 FROM graves WHERE parcel_id = $1)"
	if err := tx.QueryRow(transactionCtx, queryString, parcelId).Scan(&occupied); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if occupied {
		utils.RedirectWithError(c, schemas.ParcelOccupied, "/user", errors.New("parcel occupied"))
		return
	}

	queryString = "INSERT INTO graves (grave_id, user_id, parcel_id, name, last_name, day_of_birth, day_of_death) VALUES ($1, $2, $3, $4, $5, $6, $7)"
	if _, err := tx.Exec(transactionCtx, queryString, uuid.New(), user.ID, parcelId, graveRequest.Name, graveRequest.LastName,
		dayOfBirth, dayOfDeath); err != nil {
		if isUniqueViolation(err) {
			utils.RedirectWithError(c, schemas.ParcelOccupied, "/user", err)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err := utils.CommitTransaction(c, tx, transactionCtx); err != nil {
		return
	}

	utils.RedirectWithFlash(c, utils.FlashSuccess, "The grave has been added.", "/user")
}

// GravePage renders a grave with its parcel. Only the owner and admins can see it.
func (handler *GraveHandler) GravePage(c *gin.Context, user *schemas.User) {
	graveId, ok := parseIdParam(c, utils.GraveIdKey)
	if !ok {
		return
	}

	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel)

	page := &schemas.GravePageDTO{}
	grave := &page.Grave
	queryString := "SELECT g.grave_id, g.user_id, g.parcel_id, g.name, g.last_name, g.day_of_birth, g.day_of_death, g.created_at, " +
		"p.position_x, p.position_y, p.parcel_type_id, t.name, t.capacity, t.price " +
		"FROM graves g JOIN parcels p ON p.parcel_id = g.parcel_id JOIN parcel_types t ON t.parcel_type_id = p.parcel_type_id " +
		"WHERE g.grave_id = $1"
	err := tx.QueryRow(transactionCtx, queryString, graveId).Scan(&grave.ID, &grave.UserID, &grave.ParcelID, &grave.Name, &grave.LastName,
		&grave.DayOfBirth, &grave.DayOfDeath, &grave.CreatedAt, &page.Parcel.PositionX, &page.Parcel.PositionY, &page.Parcel.ParcelTypeID,
		&page.ParcelType.Name, &page.ParcelType.Capacity, &page.ParcelType.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.RenderNotFound(c)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	page.Parcel.ID = grave.ParcelID
	page.ParcelType.ID = page.Parcel.ParcelTypeID

	if !mayAccessGrave(user, grave.UserID) {
		utils.RenderNotFound(c)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx); err != nil {
		return
	}

	utils.RenderPage(c, "grave", page, http.StatusOK)
}

// EditGrave overwrites all fields of the grave with the submitted form.
func (handler *GraveHandler) EditGrave(c *gin.Context, user *schemas.User) {
	graveId, ok := parseIdParam(c, utils.GraveIdKey)
	if !ok {
		return
	}

	editGraveRequest := middleware.Payload[schemas.EditGraveRequest](c)
	dayOfBirth, dayOfDeath, fieldErrors := parseDates(editGraveRequest.DayOfBirth, editGraveRequest.DayOfDeath, "edited_birth", "edited_death")
	if fieldErrors != nil {
		utils.RenderFormErrors(c, "grave", schemas.BadRequest, fieldErrors)
		return
	}

	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel)

	if !handler.lockOwnedGrave(transactionCtx, c, tx, graveId, user) {
		return
	}

	queryString := "UPDATE graves SET name = $1, last_name = $2, day_of_birth = $3, day_of_death = $4 WHERE grave_id = $5"
	if _, err := tx.Exec(transactionCtx, queryString, editGraveRequest.Name, editGraveRequest.LastName, dayOfBirth, dayOfDeath, graveId); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err := utils.CommitTransaction(c, tx, transactionCtx); err != nil {
		return
	}

	utils.RedirectWithFlash(c, utils.FlashSuccess, "The grave has been changed.", "/grave/"+graveId.String())
}

// DeleteGrave removes the grave and frees its parcel.
func (handler *GraveHandler) DeleteGrave(c *gin.Context, user *schemas.User) {
	graveId, ok := parseIdParam(c, utils.GraveIdKey)
	if !ok {
		return
	}

	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel)

	if !handler.lockOwnedGrave(transactionCtx, c, tx, graveId, user) {
		return
	}

	queryString := "DELETE FROM graves WHERE grave_id = $1"
	if _, err := tx.Exec(transactionCtx, queryString, graveId); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err := utils.CommitTransaction(c, tx, transactionCtx); err != nil {
		return
	}

	utils.RedirectWithFlash(c, utils.FlashSuccess, "The grave has been deleted.", "/user")
}

// lockOwnedGrave locks the grave row and renders the not found page unless the user may change it.
func (handler *GraveHandler) lockOwnedGrave(ctx context.Context, c *gin.Context, tx pgx.Tx, graveId uuid.UUID, user *schemas.User) bool {
	var ownerId uuid.UUID
	queryString := "SELECT user_id FROM graves WHERE grave_id = $1 FOR UPDATE"
	if err := tx.QueryRow(ctx, queryString, graveId).Scan(&ownerId); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.RenderNotFound(c)
			return false
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return false
	}

	if !mayAccessGrave(user, ownerId) {
		utils.RenderNotFound(c)
		return false
	}
	return true
}

func mayAccessGrave(user *schemas.User, ownerId uuid.UUID) bool {
	return user.Admin || user.ID == ownerId
}

func scanGraves(rows pgx.Rows) ([]schemas.Grave, error) {
	defer rows.Close()

	graves := make([]schemas.Grave, 0)
	for rows.Next() {
		grave := schemas.Grave{}
		if err := rows.Scan(&grave.ID, &grave.UserID, &grave.ParcelID, &grave.Name, &grave.LastName,
			&grave.DayOfBirth, &grave.DayOfDeath, &grave.CreatedAt); err != nil {
			return nil, err
		}
		graves = append(graves, grave)
	}
	return graves, rows.Err()
}

func scanParcelMap(rows pgx.Rows) ([]schemas.ParcelDTO, error) {
	defer rows.Close()

	parcels := make([]schemas.ParcelDTO, 0)
	for rows.Next() {
		parcel := schemas.ParcelDTO{}
		if err := rows.Scan(&parcel.ID, &parcel.PositionX, &parcel.PositionY, &parcel.ParcelTypeID, &parcel.Occupied); err != nil {
			return nil, err
		}
		parcels = append(parcels, parcel)
	}
	return parcels, rows.Err()
}
