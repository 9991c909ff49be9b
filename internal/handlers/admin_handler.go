package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"graveyard-manager/internal/managers"
	"graveyard-manager/internal/middleware"
	"graveyard-manager/internal/schemas"
	"graveyard-manager/internal/utils"
)

type AdminHdl interface {
	AdminPage(c *gin.Context, user *schemas.User)
	HandleAdminAction(c *gin.Context, user *schemas.User)
	EditMessagePage(c *gin.Context, user *schemas.User)
	EditMessage(c *gin.Context, user *schemas.User)
	DeleteMessagePage(c *gin.Context, user *schemas.User)
	DeleteMessage(c *gin.Context, user *schemas.User)
	EditObituaryPage(c *gin.Context, user *schemas.User)
	EditObituary(c *gin.Context, user *schemas.User)
	DeleteObituaryPage(c *gin.Context, user *schemas.User)
	DeleteObituary(c *gin.Context, user *schemas.User)
}

type AdminHandler struct {
	DatabaseManager managers.DatabaseMgr
	MailManager     managers.MailMgr
	Validator       *utils.Validator
}

func NewAdminHandler(databaseManager managers.DatabaseMgr, mailManager managers.MailMgr) AdminHdl {
	return &AdminHandler{
		DatabaseManager: databaseManager,
		MailManager:     mailManager,
		Validator:       utils.GetValidator(),
	}
}

// AdminPage renders all messages, all obituaries and the number of active users.
func (handler *AdminHandler) AdminPage(c *gin.Context, _ *schemas.User) {
	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel)

	page := &schemas.AdminPageDTO{}

	rows, err := tx.Query(transactionCtx, "SELECT "+messageColumns+" FROM messages ORDER BY created_at DESC")
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if page.Messages, err = scanMessages(rows); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	rows, err = tx.Query(transactionCtx, "SELECT "+obituaryColumns+" FROM obituaries ORDER BY funeral_date DESC")
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if page.Obituaries, err = scanObituaries(rows); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = tx.QueryRow(transactionCtx, "SELECT COUNT(*) FROM users WHERE active = TRUE").Scan(&page.ActiveUsers); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx); err != nil {
		return
	}

	utils.RenderPage(c, "admin", page, http.StatusOK)
}

// HandleAdminAction dispatches an admin panel submission on its action field.
// Each action binds and validates its own form.
func (handler *AdminHandler) HandleAdminAction(c *gin.Context, _ *schemas.User) {
	actionRequest := &schemas.AdminActionRequest{}
	if fieldErrors := handler.Validator.BindAndValidate(c, actionRequest); fieldErrors != nil {
		utils.RenderFormErrors(c, "admin", schemas.BadRequest, fieldErrors)
		return
	}

	switch actionRequest.Action {
	case schemas.ActionPostMessage:
		messageRequest := &schemas.MessageRequest{}
		if fieldErrors := handler.Validator.BindAndValidate(c, messageRequest); fieldErrors != nil {
			utils.RenderFormErrors(c, "admin", schemas.BadRequest, fieldErrors)
			return
		}
		handler.postMessage(c, messageRequest)
	case schemas.ActionBroadcastEmail:
		broadcastRequest := &schemas.BroadcastRequest{}
		if fieldErrors := handler.Validator.BindAndValidate(c, broadcastRequest); fieldErrors != nil {
			utils.RenderFormErrors(c, "admin", schemas.BadRequest, fieldErrors)
			return
		}
		handler.broadcastEmail(c, broadcastRequest)
	case schemas.ActionCreateObituary:
		obituaryRequest := &schemas.ObituaryRequest{}
		if fieldErrors := handler.Validator.BindAndValidate(c, obituaryRequest); fieldErrors != nil {
			utils.RenderFormErrors(c, "admin", schemas.BadRequest, fieldErrors)
			return
		}
		handler.createObituary(c, obituaryRequest)
	}
}

func (handler *AdminHandler) postMessage(c *gin.Context, messageRequest *schemas.MessageRequest) {
	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel)

	queryString := "INSERT INTO messages (message_id, title, content) VALUES ($1, $2, $3)"
	if _, err := tx.Exec(transactionCtx, queryString, uuid.New(), messageRequest.Title, messageRequest.Content); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err := utils.CommitTransaction(c, tx, transactionCtx); err != nil {
		return
	}

	utils.RedirectWithFlash(c, utils.FlashSuccess, "The message has been posted.", "/admin")
}

func (handler *AdminHandler) broadcastEmail(c *gin.Context, broadcastRequest *schemas.BroadcastRequest) {
	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel)

	rows, err := tx.Query(transactionCtx, "SELECT email FROM users WHERE active = TRUE ORDER BY email")
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	recipients, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx); err != nil {
		return
	}

	failed, err := handler.MailManager.SendBroadcastMail(broadcastRequest.Title, broadcastRequest.Content, recipients)
	result := &schemas.BroadcastResultDTO{Recipients: len(recipients), Failed: len(failed)}
	if err != nil {
		utils.LogMessageWithFieldsAndError(c, "warn", "Broadcast partially failed", err)
		utils.RedirectWithFlash(c, utils.FlashError,
			fmt.Sprintf("The email could not be sent to %d of %d users.", result.Failed, result.Recipients), "/admin")
		return
	}

	utils.RedirectWithFlash(c, utils.FlashSuccess, fmt.Sprintf("The email has been sent to %d users.", result.Recipients), "/admin")
}

func (handler *AdminHandler) createObituary(c *gin.Context, obituaryRequest *schemas.ObituaryRequest) {
	obituary, fieldErrors := parseObituary(obituaryRequest)
	if fieldErrors != nil {
		utils.RenderFormErrors(c, "admin", schemas.BadRequest, fieldErrors)
		return
	}

	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel)

	queryString := "INSERT INTO obituaries (obituary_id, name, surname, years_old, death_date, gender, funeral_date) VALUES ($1, $2, $3, $4, $5, $6, $7)"
	if _, err := tx.Exec(transactionCtx, queryString, uuid.New(), obituaryRequest.Name, obituaryRequest.Surname, obituary.yearsOld,
		obituary.deathDate, obituaryRequest.Gender == "man", obituary.funeralDate); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err := utils.CommitTransaction(c, tx, transactionCtx); err != nil {
		return
	}

	utils.RedirectWithFlash(c, utils.FlashSuccess, "The obituary has been published.", "/admin")
}

// EditMessagePage renders the edit form of a message.
func (handler *AdminHandler) EditMessagePage(c *gin.Context, _ *schemas.User) {
	handler.renderMessage(c, "message_edit")
}

// DeleteMessagePage asks for confirmation before a message is deleted.
func (handler *AdminHandler) DeleteMessagePage(c *gin.Context, _ *schemas.User) {
	handler.renderMessage(c, "message_delete")
}

func (handler *AdminHandler) renderMessage(c *gin.Context, page string) {
	messageId, ok := parseIdParam(c, utils.IdKey)
	if !ok {
		return
	}

	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel)

	message := &schemas.Message{}
	queryString := "SELECT " + messageColumns + " FROM messages WHERE message_id = $1"
	err := tx.QueryRow(transactionCtx, queryString, messageId).Scan(&message.ID, &message.Title, &message.Content, &message.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.RenderNotFound(c)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx); err != nil {
		return
	}

	utils.RenderPage(c, page, message, http.StatusOK)
}

// EditMessage overwrites title and content of a message.
func (handler *AdminHandler) EditMessage(c *gin.Context, _ *schemas.User) {
	messageId, ok := parseIdParam(c, utils.IdKey)
	if !ok {
		return
	}
	messageRequest := middleware.Payload[schemas.MessageRequest](c)

	queryString := "UPDATE messages SET title = $1, content = $2 WHERE message_id = $3"
	if !handler.execOnSingleRow(c, queryString, messageRequest.Title, messageRequest.Content, messageId) {
		return
	}

	utils.RedirectWithFlash(c, utils.FlashSuccess, "The message has been changed.", "/admin")
}

// DeleteMessage removes a message.
func (handler *AdminHandler) DeleteMessage(c *gin.Context, _ *schemas.User) {
	messageId, ok := parseIdParam(c, utils.IdKey)
	if !ok {
		return
	}

	if !handler.execOnSingleRow(c, "DELETE FROM messages WHERE message_id = $1", messageId) {
		return
	}

	utils.RedirectWithFlash(c, utils.FlashSuccess, "The message has been deleted.", "/admin")
}

// EditObituaryPage renders the edit form of an obituary.
func (handler *AdminHandler) EditObituaryPage(c *gin.Context, _ *schemas.User) {
	handler.renderObituary(c, "obituary_edit")
}

// DeleteObituaryPage asks for confirmation before an obituary is deleted.
func (handler *AdminHandler) DeleteObituaryPage(c *gin.Context, _ *schemas.User) {
	handler.renderObituary(c, "obituary_delete")
}

func (handler *AdminHandler) renderObituary(c *gin.Context, page string) {
	obituaryId, ok := parseIdParam(c, utils.IdKey)
	if !ok {
		return
	}

	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel)

	queryString := "SELECT " + obituaryColumns + " FROM obituaries WHERE obituary_id = $1"
	obituary, err := scanObituary(tx.QueryRow(transactionCtx, queryString, obituaryId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.RenderNotFound(c)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx); err != nil {
		return
	}

	utils.RenderPage(c, page, obituary, http.StatusOK)
}

// EditObituary overwrites all fields of an obituary.
func (handler *AdminHandler) EditObituary(c *gin.Context, _ *schemas.User) {
	obituaryId, ok := parseIdParam(c, utils.IdKey)
	if !ok {
		return
	}
	obituaryRequest := middleware.Payload[schemas.ObituaryRequest](c)

	obituary, fieldErrors := parseObituary(obituaryRequest)
	if fieldErrors != nil {
		utils.RenderFormErrors(c, "obituary_edit", schemas.BadRequest, fieldErrors)
		return
	}

	queryString := "UPDATE obituaries SET name = $1, surname = $2, years_old = $3, death_date = $4, gender = $5, funeral_date = $6 WHERE obituary_id = $7"
	if !handler.execOnSingleRow(c, queryString, obituaryRequest.Name, obituaryRequest.Surname, obituary.yearsOld,
		obituary.deathDate, obituaryRequest.Gender == "man", obituary.funeralDate, obituaryId) {
		return
	}

	utils.RedirectWithFlash(c, utils.FlashSuccess, "The obituary has been changed.", "/admin")
}

// DeleteObituary removes an obituary.
func (handler *AdminHandler) DeleteObituary(c *gin.Context, _ *schemas.User) {
	obituaryId, ok := parseIdParam(c, utils.IdKey)
	if !ok {
		return
	}

	if !handler.execOnSingleRow(c, "DELETE FROM obituaries WHERE obituary_id = $1", obituaryId) {
		return
	}

	utils.RedirectWithFlash(c, utils.FlashSuccess, "The obituary has been deleted.", "/admin")
}

// execOnSingleRow runs a statement addressing one row by id in its own transaction.
// It renders the not found page if no row was affected.
func (handler *AdminHandler) execOnSingleRow(c *gin.Context, queryString string, args ...interface{}) bool {
	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return false
	}
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel)

	commandTag, err := tx.Exec(transactionCtx, queryString, args...)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return false
	}
	if commandTag.RowsAffected() == 0 {
		utils.RenderNotFound(c)
		return false
	}

	return utils.CommitTransaction(c, tx, transactionCtx) == nil
}

type obituaryValues struct {
	yearsOld    int
	deathDate   time.Time
	funeralDate time.Time
}

// parseObituary converts the age, parses the death date and combines the funeral date and time.
func parseObituary(obituaryRequest *schemas.ObituaryRequest) (*obituaryValues, []schemas.FieldErrorDTO) {
	yearsOld, err := strconv.Atoi(obituaryRequest.YearsOld)
	if err != nil || yearsOld > maxYearsOld {
		return nil, []schemas.FieldErrorDTO{{Field: "years_old", Rule: "lte"}}
	}
	deathDate, err := time.ParseInLocation(dateLayout, obituaryRequest.DeathDate, time.Local)
	if err != nil {
		return nil, []schemas.FieldErrorDTO{{Field: "death_date", Rule: "datetime"}}
	}
	funeralDate, err := time.ParseInLocation(funeralLayout, obituaryRequest.FuneralDate+" "+obituaryRequest.FuneralTime, time.Local)
	if err != nil {
		return nil, []schemas.FieldErrorDTO{{Field: "funeral_date", Rule: "datetime"}}
	}
	if funeralDate.Before(deathDate) {
		return nil, []schemas.FieldErrorDTO{{Field: "funeral_date", Rule: "after_death"}}
	}
	return &obituaryValues{yearsOld: yearsOld, deathDate: deathDate, funeralDate: funeralDate}, nil
}
