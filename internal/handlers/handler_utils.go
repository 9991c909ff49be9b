// Package handlers implements the pages and form endpoints of the application.
package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"graveyard-manager/internal/schemas"
	"graveyard-manager/internal/utils"
)

const (
	dateLayout        = "2006-01-02"
	funeralLayout     = "2006-01-02 15:04"
	uniqueViolation   = "23505"
	messageColumns    = "message_id, title, content, created_at"
	obituaryColumns   = "obituary_id, name, surname, years_old, death_date, gender, funeral_date, created_at"
	latestEntriesSize = 10
	maxYearsOld       = 150
)

// isUniqueViolation reports whether err was raised by a unique index.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// parseIdParam reads a uuid path parameter and renders the not found page if it is invalid.
func parseIdParam(c *gin.Context, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(key))
	if err != nil {
		utils.LogMessageWithFieldsAndError(c, "debug", "Invalid "+key, err)
		utils.RenderNotFound(c)
		return uuid.Nil, false
	}
	return id, true
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// parseDates parses a birth and a death date and checks their order.
func parseDates(birth, death, birthField, deathField string) (time.Time, time.Time, []schemas.FieldErrorDTO) {
	dayOfBirth, err := time.Parse(dateLayout, birth)
	if err != nil {
		return time.Time{}, time.Time{}, []schemas.FieldErrorDTO{{Field: birthField, Rule: "datetime"}}
	}
	dayOfDeath, err := time.Parse(dateLayout, death)
	if err != nil {
		return time.Time{}, time.Time{}, []schemas.FieldErrorDTO{{Field: deathField, Rule: "datetime"}}
	}
	if dayOfDeath.Before(dayOfBirth) {
		return time.Time{}, time.Time{}, []schemas.FieldErrorDTO{{Field: deathField, Rule: "after_birth"}}
	}
	return dayOfBirth, dayOfDeath, nil
}

func scanMessages(rows pgx.Rows) ([]schemas.Message, error) {
	defer rows.Close()

	messages := make([]schemas.Message, 0)
	for rows.Next() {
		message := schemas.Message{}
		if err := rows.Scan(&message.ID, &message.Title, &message.Content, &message.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}

func scanObituary(row pgx.Row) (*schemas.Obituary, error) {
	obituary := &schemas.Obituary{}
	err := row.Scan(&obituary.ID, &obituary.Name, &obituary.Surname, &obituary.YearsOld, &obituary.DeathDate,
		&obituary.Gender, &obituary.FuneralDate, &obituary.CreatedAt)
	if err != nil {
		return nil, err
	}
	return obituary, nil
}

func scanObituaries(rows pgx.Rows) ([]schemas.Obituary, error) {
	defer rows.Close()

	obituaries := make([]schemas.Obituary, 0)
	for rows.Next() {
		obituary, err := scanObituary(rows)
		if err != nil {
			return nil, err
		}
		obituaries = append(obituaries, *obituary)
	}
	return obituaries, rows.Err()
}
