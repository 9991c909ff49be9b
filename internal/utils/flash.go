package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/gob"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"graveyard-manager/internal/schemas"
)

const (
	FlashCookieName = "flash"
	FlashSuccess    = "success"
	FlashError      = "error"

	flashKeyPurpose = "flash"
)

func init() {
	gob.Register(schemas.Flash{})
}

// NewFlashStore returns the signed cookie store holding the flash queue.
// Its key is derived from the secret so it differs from the token signing keys.
func NewFlashStore(secretKey []byte, secure bool) cookie.Store {
	mac := hmac.New(sha256.New, secretKey)
	mac.Write([]byte(flashKeyPurpose))

	store := cookie.NewStore(mac.Sum(nil))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

// AddFlash queues a message for the next rendered page.
func AddFlash(c *gin.Context, category, message string) {
	addFlash(c, schemas.Flash{Category: category, Message: message})
}

// AddErrorFlash queues the message of the given error for the next rendered page.
func AddErrorFlash(c *gin.Context, customErr *schemas.CustomError) {
	addFlash(c, schemas.Flash{Category: FlashError, Message: customErr.Message, Code: customErr.Code})
}

// PopFlashes returns all queued messages and clears the queue.
func PopFlashes(c *gin.Context) []schemas.Flash {
	flashes := make([]schemas.Flash, 0)
	session := flashSession(c)
	if session == nil {
		return flashes
	}

	values := session.Flashes()
	for _, value := range values {
		if flash, ok := value.(schemas.Flash); ok {
			flashes = append(flashes, flash)
		}
	}
	if len(values) > 0 {
		saveFlashes(c, session)
	}
	return flashes
}

func addFlash(c *gin.Context, flash schemas.Flash) {
	session := flashSession(c)
	if session == nil {
		LogMessageWithFields(c, "warn", "No flash store installed, dropping message: "+flash.Message)
		return
	}
	session.AddFlash(flash)
	saveFlashes(c, session)
}

// flashSession returns nil on routers without the flash store.
func flashSession(c *gin.Context) sessions.Session {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return nil
	}
	return sessions.Default(c)
}

func saveFlashes(c *gin.Context, session sessions.Session) {
	if err := session.Save(); err != nil {
		LogMessageWithFieldsAndError(c, "warn", "Could not store flash messages", err)
	}
}
