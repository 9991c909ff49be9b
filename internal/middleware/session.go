package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"graveyard-manager/internal/config"
	"graveyard-manager/internal/managers"
	"graveyard-manager/internal/schemas"
	"graveyard-manager/internal/utils"
)

const SessionCookieName = "session"

// SessionGate resolves the identity of every request from the session cookie.
// The cookie holds a session token whose subject is the token id of the user,
// so rotating the token id ends all sessions issued before.
type SessionGate struct {
	DatabaseManager managers.DatabaseMgr
	TokenManager    managers.TokenMgr
	maxAge          time.Duration
	secure          bool
}

func NewSessionGate(databaseMgr managers.DatabaseMgr, tokenMgr managers.TokenMgr, cfg *config.Config) *SessionGate {
	return &SessionGate{
		DatabaseManager: databaseMgr,
		TokenManager:    tokenMgr,
		maxAge:          cfg.SessionMaxAge,
		secure:          cfg.IsProduction(),
	}
}

// ResolveSession stores the session of the request in the context. It never blocks a request.
func (sg *SessionGate) ResolveSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(utils.SessionKey.String(), sg.resolve(c))
		c.Next()
	}
}

func (sg *SessionGate) resolve(c *gin.Context) *schemas.Session {
	anonymous := &schemas.Session{State: schemas.Anonymous}

	cookie, err := c.Cookie(SessionCookieName)
	if err != nil || cookie == "" {
		return anonymous
	}

	tokenId, err := sg.TokenManager.Verify(cookie, managers.PurposeSession, sg.maxAge)
	if err != nil {
		utils.LogMessageWithFieldsAndError(c, "debug", "Dropping session cookie", err)
		sg.EndSession(c)
		return anonymous
	}

	row := sg.DatabaseManager.GetPool().QueryRow(c.Request.Context(),
		"SELECT "+utils.UserColumns+" FROM users WHERE token_id = $1 AND active = TRUE", tokenId)
	user, err := utils.ScanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.LogMessageWithFields(c, "debug", "Session belongs to no active user")
			sg.EndSession(c)
		} else {
			utils.LogMessageWithFieldsAndError(c, "error", "Could not resolve session", err)
		}
		return anonymous
	}

	return &schemas.Session{State: schemas.Authenticated, User: user}
}

// StartSession sets the session cookie for the user.
func (sg *SessionGate) StartSession(c *gin.Context, user *schemas.User) error {
	token, err := sg.TokenManager.Issue(user.TokenID.String(), managers.PurposeSession)
	if err != nil {
		return err
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, int(sg.maxAge.Seconds()), "/", "", sg.secure, true)
	c.Set(utils.SessionKey.String(), &schemas.Session{State: schemas.Authenticated, User: user})
	return nil
}

// EndSession clears the session cookie.
func (sg *SessionGate) EndSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", sg.secure, true)
	c.Set(utils.SessionKey.String(), &schemas.Session{State: schemas.Anonymous})
}

// RequireLogin sends anonymous visitors to the login page, remembering the requested page.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if utils.CurrentSession(c).State != schemas.Authenticated {
			redirectToLogin(c)
			return
		}
		c.Next()
	}
}

// RequireAdmin hides admin pages from everybody else.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !utils.CurrentSession(c).IsAdmin() {
			utils.RenderNotFound(c)
			return
		}
		c.Next()
	}
}

// RequireAnonymous sends logged in users to the main page.
func RequireAnonymous() gin.HandlerFunc {
	return func(c *gin.Context) {
		if utils.CurrentSession(c).State == schemas.Authenticated {
			c.Redirect(http.StatusSeeOther, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// WithUser passes the logged in user to the handler.
func WithUser(handler func(c *gin.Context, user *schemas.User)) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := utils.CurrentSession(c)
		if session.State != schemas.Authenticated || session.User == nil {
			redirectToLogin(c)
			return
		}
		handler(c, session.User)
	}
}

func redirectToLogin(c *gin.Context) {
	utils.AddErrorFlash(c, schemas.Unauthorized)
	c.Redirect(http.StatusSeeOther, utils.LoginRedirect(c.Request.URL.Path))
	c.Abort()
}
