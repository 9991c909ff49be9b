package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"graveyard-manager/internal/config"
	"graveyard-manager/internal/managers"
	"graveyard-manager/internal/middleware"
	"graveyard-manager/internal/schemas"
	"graveyard-manager/internal/utils"
)

type UserHdl interface {
	LoginPage(c *gin.Context)
	LoginUser(c *gin.Context)
	LogoutUser(c *gin.Context)
	RegisterPage(c *gin.Context)
	RegisterUser(c *gin.Context)
	ConfirmEmail(c *gin.Context)
	RecoveryPage(c *gin.Context)
	RequestRecovery(c *gin.Context)
	CompleteRecovery(c *gin.Context)
	UserPage(c *gin.Context, user *schemas.User)
	ChangePasswordPage(c *gin.Context, user *schemas.User)
	ChangePassword(c *gin.Context, user *schemas.User)
	ChangeDataPage(c *gin.Context, user *schemas.User)
	ChangeData(c *gin.Context, user *schemas.User)
}

type UserHandler struct {
	DatabaseManager   managers.DatabaseMgr
	TokenManager      managers.TokenMgr
	MailManager       managers.MailMgr
	RevocationManager managers.RevocationMgr
	Sessions          *middleware.SessionGate
	Validator         *utils.Validator
	Config            *config.Config
}

func NewUserHandler(databaseManager managers.DatabaseMgr, tokenManager managers.TokenMgr, mailManager managers.MailMgr,
	revocationManager managers.RevocationMgr, sessions *middleware.SessionGate, cfg *config.Config) UserHdl {
	return &UserHandler{
		DatabaseManager:   databaseManager,
		TokenManager:      tokenManager,
		MailManager:       mailManager,
		RevocationManager: revocationManager,
		Sessions:          sessions,
		Validator:         utils.GetValidator(),
		Config:            cfg,
	}
}

// dummyHash is compared against when no user matches a login, so both cases take the same time.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("graveyard-manager-dummy"), bcrypt.DefaultCost)

const recoveryRequestedMessage = "If the address belongs to an active account, further instructions have been sent to it."

// LoginPage renders the login form.
func (handler *UserHandler) LoginPage(c *gin.Context) {
	utils.RenderPage(c, "login", &schemas.LoginDTO{Next: nextPage(c)}, http.StatusOK)
}

// LoginUser checks the credentials and starts a session.
func (handler *UserHandler) LoginUser(c *gin.Context) {
	loginRequest := middleware.Payload[schemas.LoginRequest](c)
	next := nextPage(c)

	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel)

	// Look up the user, a missing user is handled like a wrong password
	queryString := "SELECT " + utils.UserColumns + " FROM users WHERE email = $1"
	user, err := utils.ScanUser(tx.QueryRow(transactionCtx, queryString, normalizeEmail(loginRequest.Email)))
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if !passwordMatches(user, loginRequest.Password) || !user.Active {
		utils.RedirectWithError(c, schemas.InvalidCredentials, loginLocation(next), errors.New("login rejected"))
		return
	}

	if err := utils.CommitTransaction(c, tx, transactionCtx); err != nil {
		return
	}

	if err := handler.Sessions.StartSession(c, user); err != nil {
		utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	target := "/"
	if next != "" {
		target = next
	}
	utils.RedirectWithFlash(c, utils.FlashSuccess, "You have been logged in.", target)
}

// LogoutUser ends the session.
func (handler *UserHandler) LogoutUser(c *gin.Context) {
	handler.Sessions.EndSession(c)
	utils.RedirectWithFlash(c, utils.FlashSuccess, "You have been logged out.", "/")
}

// RegisterPage renders the registration form.
func (handler *UserHandler) RegisterPage(c *gin.Context) {
	utils.RenderPage(c, "register", nil, http.StatusOK)
}

// RegisterUser creates a pending account, or refreshes one that was never activated, and mails the activation link.
func (handler *UserHandler) RegisterUser(c *gin.Context) {
	registrationRequest := middleware.Payload[schemas.RegistrationRequest](c)
	email := normalizeEmail(registrationRequest.Email)

	// Check if the email address can receive mails at all
	if handler.Config.VerifyEmailMX && !handler.Validator.VerifyEmail(email) {
		utils.RenderFormErrors(c, "register", schemas.EmailUnreachable, []schemas.FieldErrorDTO{{Field: "email", Rule: "mx"}})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registrationRequest.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel)

	var userId uuid.UUID
	var active bool
	queryString := "SELECT user_id, active FROM users WHERE email = $1 FOR UPDATE"
	err = tx.QueryRow(transactionCtx, queryString, email).Scan(&userId, &active)
	profile := registrationRequest.ProfileData

	switch {
	case err == nil && active:
		utils.RedirectWithError(c, schemas.EmailTaken, "/register", errors.New("email of an active account"))
		return
	case err == nil:
		// Pending account, the resubmitted form replaces the old data
		queryString = "UPDATE users SET password = $1, name = $2, last_name = $3, city = $4, zip_code = $5, street = $6, house_number = $7, flat_number = $8 WHERE user_id = $9"
		if _, err = tx.Exec(transactionCtx, queryString, string(hashedPassword), profile.Name, profile.LastName, profile.City,
			profile.ZipCode, profile.Street, profile.HouseNumber, profile.FlatNumber, userId); err != nil {
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
	case errors.Is(err, pgx.ErrNoRows):
		queryString = "INSERT INTO users (user_id, token_id, email, password, active, admin, name, last_name, city, zip_code, street, house_number, flat_number) VALUES ($1, $2, $3, $4, FALSE, FALSE, $5, $6, $7, $8, $9, $10, $11)"
		if _, err = tx.Exec(transactionCtx, queryString, uuid.New(), uuid.New(), email, string(hashedPassword), profile.Name, profile.LastName,
			profile.City, profile.ZipCode, profile.Street, profile.HouseNumber, profile.FlatNumber); err != nil {
			if isUniqueViolation(err) {
				utils.RedirectWithError(c, schemas.EmailTaken, "/register", err)
				return
			}
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
	default:
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	// Mail the activation link before committing, so a failed mail leaves no account behind
	token, err := handler.TokenManager.Issue(email, managers.PurposeConfirmEmail)
	if err != nil {
		utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}
	link := handler.Config.BaseURL + "/confirm_email/" + token
	if err = handler.MailManager.SendActivationMail(email, profile.Name, link); err != nil {
		utils.WriteAndLogError(c, schemas.EmailNotSent, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx); err != nil {
		return
	}

	utils.RedirectWithFlash(c, utils.FlashSuccess, "An activation link has been sent to your email address.", "/login")
}

// ConfirmEmail activates the account the link was issued for.
func (handler *UserHandler) ConfirmEmail(c *gin.Context) {
	email, err := handler.TokenManager.Verify(c.Param(utils.TokenKey), managers.PurposeConfirmEmail, handler.Config.TokenMaxAge)
	if err != nil {
		utils.RedirectWithError(c, schemas.LinkInactive, "/", err)
		return
	}

	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel)

	var userId uuid.UUID
	var active bool
	queryString := "SELECT user_id, active FROM users WHERE email = $1 FOR UPDATE"
	if err = tx.QueryRow(transactionCtx, queryString, email).Scan(&userId, &active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.RedirectWithError(c, schemas.LinkInactive, "/", err)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if active {
		utils.RedirectWithError(c, schemas.AccountAlreadyActive, "/", errors.New("account already active"))
		return
	}

	queryString = "UPDATE users SET active = TRUE WHERE user_id = $1"
	if _, err = tx.Exec(transactionCtx, queryString, userId); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx); err != nil {
		return
	}

	utils.RedirectWithFlash(c, utils.FlashSuccess, "Your account has been activated.", "/login")
}

// RecoveryPage renders the password recovery form.
func (handler *UserHandler) RecoveryPage(c *gin.Context) {
	utils.RenderPage(c, "pw_recovery", nil, http.StatusOK)
}

// RequestRecovery mails a recovery link to active accounts. Every address gets the same answer.
func (handler *UserHandler) RequestRecovery(c *gin.Context) {
	emailRequest := middleware.Payload[schemas.EmailRequest](c)
	email := normalizeEmail(emailRequest.Email)

	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel)

	var tokenId uuid.UUID
	queryString := "SELECT token_id FROM users WHERE email = $1 AND active = TRUE"
	err := tx.QueryRow(transactionCtx, queryString, email).Scan(&tokenId)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx); err != nil {
		return
	}

	if tokenId != uuid.Nil {
		handler.sendRecoveryLink(c, email, tokenId)
	} else {
		utils.LogMessageWithFields(c, "info", "Recovery requested for an unknown or inactive address")
	}

	utils.RedirectWithFlash(c, utils.FlashSuccess, recoveryRequestedMessage, "/login")
}

// sendRecoveryLink only logs failures, the answer must not tell whether the address exists.
func (handler *UserHandler) sendRecoveryLink(c *gin.Context, email string, tokenId uuid.UUID) {
	token, err := handler.TokenManager.Issue(tokenId.String(), managers.PurposePwRecovery)
	if err != nil {
		utils.LogMessageWithFieldsAndError(c, "error", "Could not issue recovery token", err)
		return
	}

	link := handler.Config.BaseURL + "/pw_recovery/" + token
	if err = handler.MailManager.SendRecoveryMail(email, link); err != nil {
		utils.LogMessageWithFieldsAndError(c, "error", "Could not send recovery mail", err)
	}
}

// CompleteRecovery replaces the password with a generated one and mails it to the user.
// Rotating the token id ends all sessions and invalidates the link itself.
// The link is consumed up front and released again unless the new password was committed.
func (handler *UserHandler) CompleteRecovery(c *gin.Context) {
	claims, err := handler.TokenManager.VerifyClaims(c.Param(utils.TokenKey), managers.PurposePwRecovery, handler.Config.TokenMaxAge)
	if err != nil {
		utils.RedirectWithError(c, schemas.LinkInactive, "/", err)
		return
	}

	firstUse, err := handler.RevocationManager.Consume(c.Request.Context(), claims.ID, handler.Config.TokenMaxAge)
	if err != nil {
		utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}
	if !firstUse {
		utils.RedirectWithError(c, schemas.LinkInactive, "/", errors.New("recovery link already used"))
		return
	}
	redeemed := false
	defer func() {
		if !redeemed {
			handler.releaseRecoveryLink(c, claims.ID)
		}
	}()

	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel)

	var userId uuid.UUID
	var email string
	queryString := "SELECT user_id, email FROM users WHERE token_id = $1 AND active = TRUE FOR UPDATE"
	if err = tx.QueryRow(transactionCtx, queryString, claims.Subject).Scan(&userId, &email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.RedirectWithError(c, schemas.LinkInactive, "/", err)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	password, err := utils.GeneratePassword()
	if err != nil {
		utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	queryString = "UPDATE users SET password = $1, token_id = $2 WHERE user_id = $3"
	if _, err = tx.Exec(transactionCtx, queryString, string(hashedPassword), uuid.New(), userId); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	// The password is only stored once the mail carrying it went out
	if err = handler.MailManager.SendNewPasswordMail(email, password); err != nil {
		utils.WriteAndLogError(c, schemas.EmailNotSent, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx); err != nil {
		return
	}
	redeemed = true

	handler.Sessions.EndSession(c)
	utils.RedirectWithFlash(c, utils.FlashSuccess, "A new password has been sent to your email address.", "/login")
}

func (handler *UserHandler) releaseRecoveryLink(c *gin.Context, tokenID string) {
	if err := handler.RevocationManager.Release(c.Request.Context(), tokenID); err != nil {
		utils.LogMessageWithFieldsAndError(c, "warn", "Could not release recovery link", err)
	}
}

// UserPage renders the graves of the user and the parcel map.
func (handler *UserHandler) UserPage(c *gin.Context, user *schemas.User) {
	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel)

	queryString := "SELECT " + graveColumns + " FROM graves WHERE user_id = $1 ORDER BY created_at"
	rows, err := tx.Query(transactionCtx, queryString, user.ID)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	graves, err := scanGraves(rows)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryString = "SELECT p.parcel_id, p.position_x, p.position_y, p.parcel_type_id, EXISTS(SELECT 1 FROM graves g WHERE g.parcel_id = p.parcel_id) " +
		"FROM parcels p ORDER BY p.position_y, p.position_x"
	rows, err = tx.Query(transactionCtx, queryString)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	parcels, err := scanParcelMap(rows)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx); err != nil {
		return
	}

	page := &schemas.UserPageDTO{Graves: graves, Parcels: parcels}
	for _, parcel := range parcels {
		if parcel.PositionX > page.MaxPositionX {
			page.MaxPositionX = parcel.PositionX
		}
	}
	utils.RenderPage(c, "user", page, http.StatusOK)
}

// ChangePasswordPage renders the password change form.
func (handler *UserHandler) ChangePasswordPage(c *gin.Context, _ *schemas.User) {
	utils.RenderPage(c, "user_password", nil, http.StatusOK)
}

// ChangePassword sets a new password. The token id is rotated, which ends every other session of the user.
func (handler *UserHandler) ChangePassword(c *gin.Context, user *schemas.User) {
	changePasswordRequest := middleware.Payload[schemas.ChangePasswordRequest](c)

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(changePasswordRequest.OldPassword)) != nil {
		utils.RedirectWithError(c, schemas.InvalidOldPassword, "/user/password", errors.New("old password mismatch"))
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(changePasswordRequest.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel)

	tokenId := uuid.New()
	queryString := "UPDATE users SET password = $1, token_id = $2 WHERE user_id = $3"
	if _, err = tx.Exec(transactionCtx, queryString, string(hashedPassword), tokenId, user.ID); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx); err != nil {
		return
	}

	// Log the user back in with the new token id
	user.Password = string(hashedPassword)
	user.TokenID = tokenId
	if err = handler.Sessions.StartSession(c, user); err != nil {
		utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	utils.RedirectWithFlash(c, utils.FlashSuccess, "Your password has been changed.", "/user")
}

// ChangeDataPage renders the personal data form filled with the current data.
func (handler *UserHandler) ChangeDataPage(c *gin.Context, user *schemas.User) {
	profile := &schemas.ProfileData{
		Name:        user.Name,
		LastName:    user.LastName,
		City:        user.City,
		ZipCode:     user.ZipCode,
		Street:      user.Street,
		HouseNumber: user.HouseNumber,
		FlatNumber:  user.FlatNumber,
	}
	utils.RenderPage(c, "user_data", profile, http.StatusOK)
}

// ChangeData updates the personal data after checking the password.
func (handler *UserHandler) ChangeData(c *gin.Context, user *schemas.User) {
	changeDataRequest := middleware.Payload[schemas.ChangeDataRequest](c)

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(changeDataRequest.OldPassword)) != nil {
		utils.RedirectWithError(c, schemas.InvalidOldPassword, "/user/data", errors.New("old password mismatch"))
		return
	}

	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel)

	profile := changeDataRequest.ProfileData
	queryString := "UPDATE users SET name = $1, last_name = $2, city = $3, zip_code = $4, street = $5, house_number = $6, flat_number = $7 WHERE user_id = $8"
	if _, err := tx.Exec(transactionCtx, queryString, profile.Name, profile.LastName, profile.City, profile.ZipCode,
		profile.Street, profile.HouseNumber, profile.FlatNumber, user.ID); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err := utils.CommitTransaction(c, tx, transactionCtx); err != nil {
		return
	}

	utils.RedirectWithFlash(c, utils.FlashSuccess, "Your data has been changed.", "/user")
}

func passwordMatches(user *schemas.User, password string) bool {
	hash := dummyHash
	if user != nil {
		hash = []byte(user.Password)
	}
	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	return user != nil && err == nil
}

// nextPage returns the page to continue with after logging in, or "" if it is missing or unsafe.
func nextPage(c *gin.Context) string {
	next := c.Query(utils.NextParamKey)
	if next == "" {
		next = c.PostForm(utils.NextParamKey)
	}
	if !utils.IsSafeNext(next) {
		return ""
	}
	return next
}

func loginLocation(next string) string {
	if next == "" {
		return "/login"
	}
	return utils.LoginRedirect(next)
}
