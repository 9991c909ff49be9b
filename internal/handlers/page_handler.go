package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"graveyard-manager/internal/managers"
	"graveyard-manager/internal/schemas"
	"graveyard-manager/internal/utils"
)

type PageHdl interface {
	IndexPage(c *gin.Context)
	NotFoundPage(c *gin.Context)
	Health(c *gin.Context)
}

type PageHandler struct {
	DatabaseManager managers.DatabaseMgr
}

func NewPageHandler(databaseManager managers.DatabaseMgr) PageHdl {
	return &PageHandler{DatabaseManager: databaseManager}
}

// IndexPage renders the latest messages and the upcoming funerals.
func (handler *PageHandler) IndexPage(c *gin.Context) {
	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel)

	page := &schemas.IndexDTO{}

	queryString := "SELECT " + messageColumns + " FROM messages ORDER BY created_at DESC LIMIT $1"
	rows, err := tx.Query(transactionCtx, queryString, latestEntriesSize)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if page.Messages, err = scanMessages(rows); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryString = "SELECT " + obituaryColumns + " FROM obituaries WHERE funeral_date >= NOW() ORDER BY funeral_date LIMIT $1"
	rows, err = tx.Query(transactionCtx, queryString, latestEntriesSize)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if page.Obituaries, err = scanObituaries(rows); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx); err != nil {
		return
	}

	utils.RenderPage(c, "index", page, http.StatusOK)
}

// NotFoundPage answers every unknown route.
func (handler *PageHandler) NotFoundPage(c *gin.Context) {
	utils.RenderNotFound(c)
}

// Health reports whether the database is reachable.
func (handler *PageHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := handler.DatabaseManager.GetPool().Ping(ctx); err != nil {
		utils.LogMessageWithFieldsAndError(c, "error", "Database ping failed", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
