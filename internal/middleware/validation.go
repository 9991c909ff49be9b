package middleware

import (
	"github.com/gin-gonic/gin"

	"graveyard-manager/internal/schemas"
	"graveyard-manager/internal/utils"
)

// ValidateAndSanitizeForm binds the submitted form into a fresh T, sanitizes and validates it.
// Invalid forms are answered with the form page and the failed fields, valid ones are stored for the handler.
func ValidateAndSanitizeForm[T any](page string) gin.HandlerFunc {
	return func(c *gin.Context) {
		obj := new(T)
		if fieldErrors := utils.GetValidator().BindAndValidate(c, obj); fieldErrors != nil {
			utils.RenderFormErrors(c, page, schemas.BadRequest, fieldErrors)
			return
		}

		c.Set(utils.SanitizedPayloadKey.String(), obj)
		c.Next()
	}
}

// Payload returns the form stored by ValidateAndSanitizeForm.
func Payload[T any](c *gin.Context) *T {
	value, _ := c.Get(utils.SanitizedPayloadKey.String())
	obj, _ := value.(*T)
	return obj
}
