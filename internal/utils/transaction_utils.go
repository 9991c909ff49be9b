package utils

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"graveyard-manager/internal/interfaces"
	"graveyard-manager/internal/schemas"
)

const transactionTimeout = 10 * time.Second

// BeginTransaction begins a new database transaction with a context deadline.
// It returns the transaction object, the transaction context, and a cancel function for the context.
// If the transaction fails to begin, it logs and sends an error response.
func BeginTransaction(c *gin.Context, pool interfaces.PgxPoolIface) (pgx.Tx, context.Context, context.CancelFunc) {
	LogMessageWithFields(c, "debug", "Beginning transaction...")
	transactionCtx, cancel := context.WithDeadline(c.Request.Context(), time.Now().Add(transactionTimeout))

	tx, err := pool.Begin(transactionCtx)
	if err != nil {
		cancel()
		WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return nil, nil, nil
	}

	return tx, transactionCtx, cancel
}

// RollbackTransaction rolls back the given transaction unless it was already committed and cancels its context.
// It is meant to be deferred right after BeginTransaction.
func RollbackTransaction(c *gin.Context, tx pgx.Tx, ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	if err := tx.Rollback(ctx); err != nil {
		if errors.Is(err, pgx.ErrTxClosed) {
			return
		}
		LogMessageWithFieldsAndError(c, "debug", "Rollback skipped", err)
		return
	}
	LogMessageWithFields(c, "debug", "Transaction rolled back")
}

// CommitTransaction attempts to commit the given transaction.
// If the commit fails, it logs the error, sends an error response, and returns the error.
func CommitTransaction(c *gin.Context, tx pgx.Tx, ctx context.Context) error {
	LogMessageWithFields(c, "debug", "Committing transaction...")
	if err := tx.Commit(ctx); err != nil {
		LogMessageWithFieldsAndError(c, "error", "Error committing transaction", err)
		WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return err
	}

	LogMessageWithFields(c, "debug", "Transaction committed")
	return nil
}
