package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"graveyard-manager/internal/schemas"
)

// WriteAndLogResponse encodes the response object to JSON and writes it to the HTTP response.
// It also sets the provided status code.
func WriteAndLogResponse(ctx *gin.Context, response interface{}, statusCode int) {
	LogMessageWithFields(ctx, "info", "Returning response")
	ctx.JSON(statusCode, response)
}

// WriteAndLogError logs the provided error and renders the error page with the specified status code and error details.
func WriteAndLogError(c *gin.Context, customErr *schemas.CustomError, statusCode int, err error) {
	LogMessageWithFields(c, "error", "Error occurred: "+err.Error())
	LogMessageWithFields(c, "error", "Returning "+customErr.Code+" / "+customErr.Message)
	page := &schemas.PageDTO{
		Page:    "error",
		Flashes: PopFlashes(c),
		Error:   customErr,
	}
	c.AbortWithStatusJSON(statusCode, page)
}

// RedirectWithFlash queues a flash message and redirects to the given location.
func RedirectWithFlash(c *gin.Context, category, message, location string) {
	AddFlash(c, category, message)
	c.Redirect(http.StatusSeeOther, location)
}

// RedirectWithError queues the error as flash message, logs the cause and redirects to the given location.
func RedirectWithError(c *gin.Context, customErr *schemas.CustomError, location string, err error) {
	if err != nil {
		LogMessageWithFields(c, "info", "Redirecting with "+customErr.Code+": "+err.Error())
	}
	AddErrorFlash(c, customErr)
	c.Redirect(http.StatusSeeOther, location)
}

// CurrentSession returns the session resolved by the session gate, anonymous if there is none.
func CurrentSession(c *gin.Context) *schemas.Session {
	if value, ok := c.Get(SessionKey.String()); ok {
		if session, ok := value.(*schemas.Session); ok {
			return session
		}
	}
	return &schemas.Session{State: schemas.Anonymous}
}

// RenderPage writes the page model with the pending flash messages and the current user.
func RenderPage(c *gin.Context, page string, data interface{}, statusCode int) {
	WriteAndLogResponse(c, &schemas.PageDTO{
		Page:    page,
		Flashes: PopFlashes(c),
		User:    schemas.NewUserDTO(CurrentSession(c).User),
		Data:    data,
	}, statusCode)
}

// RenderFormErrors aborts with the form page, the error and the failed fields.
func RenderFormErrors(c *gin.Context, page string, customErr *schemas.CustomError, fieldErrors []schemas.FieldErrorDTO) {
	LogMessageWithFields(c, "info", "Form on page "+page+" rejected with "+customErr.Code)
	c.AbortWithStatusJSON(http.StatusBadRequest, &schemas.PageDTO{
		Page:    page,
		Flashes: PopFlashes(c),
		User:    schemas.NewUserDTO(CurrentSession(c).User),
		Error:   customErr,
		Errors:  fieldErrors,
	})
}

// RenderNotFound aborts with the not found page.
func RenderNotFound(c *gin.Context) {
	LogMessageWithFields(c, "info", "Page not found: "+c.Request.URL.Path)
	c.AbortWithStatusJSON(http.StatusNotFound, &schemas.PageDTO{
		Page:    "not_found",
		Flashes: PopFlashes(c),
		User:    schemas.NewUserDTO(CurrentSession(c).User),
		Error:   schemas.NotFound,
	})
}
