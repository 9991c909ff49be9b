package routing

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"graveyard-manager/internal/managers"
	"graveyard-manager/internal/schemas"
	"graveyard-manager/internal/utils"
)

const (
	loginQuery       = "FROM users WHERE email = $1"
	lockByEmailQuery = "SELECT user_id, active FROM users WHERE email = $1 FOR UPDATE"
	recoveryQuery    = "SELECT token_id FROM users WHERE email = $1 AND active = TRUE"
	lockByTokenQuery = "SELECT user_id, email FROM users WHERE token_id = $1 AND active = TRUE FOR UPDATE"
	rotatePassword   = "UPDATE users SET password = $1, token_id = $2 WHERE user_id = $3"
)

func TestLoginUser(t *testing.T) {
	testCases := []struct {
		name         string
		password     string
		active       bool
		found        bool
		next         string
		wantLocation string
		wantSession  bool
	}{
		{"ValidCredentials", testPassword, true, true, "", "/", true},
		{"ReturnsToRequestedPage", testPassword, true, true, "/user/password", "/user/password", true},
		{"IgnoresForeignNext", testPassword, true, true, "//evil.example.com", "/", true},
		{"WrongPassword", "Wrong.Password123", true, true, "", "/login", false},
		{"WrongPasswordKeepsNext", "Wrong.Password123", true, true, "/user", "/login?next=%2Fuser", false},
		{"InactiveAccount", testPassword, false, true, "", "/login", false},
		{"UnknownEmail", testPassword, true, false, "", "/login", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := setupTest(t)
			user := newTestUser(t, false)
			user.Active = tc.active

			env.poolMock.ExpectBegin()
			query := env.poolMock.ExpectQuery(regexp.QuoteMeta(loginQuery)).WithArgs(user.Email)
			if tc.found {
				query.WillReturnRows(userRows(user))
			} else {
				query.WillReturnError(pgx.ErrNoRows)
			}
			if tc.wantSession {
				env.poolMock.ExpectCommit()
			} else {
				env.poolMock.ExpectRollback()
			}

			request := env.expect.POST("/login").
				WithFormField("email", "  Jan.Kowalski@Example.com ").
				WithFormField("password", tc.password)
			if tc.next != "" {
				request = request.WithQuery("next", tc.next)
			}
			response := request.Expect().Status(http.StatusSeeOther)
			response.Header("Location").IsEqual(tc.wantLocation)

			if !tc.wantSession {
				assertFlashCode(t, response, schemas.InvalidCredentials.Code)
				assert.Nil(t, findCookie(response, "session"))
				return
			}

			tokenId, err := env.tokenMgr.Verify(response.Cookie("session").Value().Raw(), managers.PurposeSession, env.cfg.SessionMaxAge)
			require.NoError(t, err)
			assert.Equal(t, user.TokenID.String(), tokenId)
			sessionCookie := findCookie(response, "session")
			require.NotNil(t, sessionCookie)
			assert.Equal(t, int(env.cfg.SessionMaxAge.Seconds()), sessionCookie.MaxAge)
			assert.True(t, sessionCookie.HttpOnly)
		})
	}
}

func TestLoginUserRejectsInvalidForm(t *testing.T) {
	env := setupTest(t)

	page := env.expect.POST("/login").
		WithFormField("email", "not-an-email").
		Expect().
		Status(http.StatusBadRequest).
		JSON().Object()

	page.Value("page").String().IsEqual("login")
	page.Value("error").Object().Value("code").String().IsEqual(schemas.BadRequest.Code)
	fields := page.Value("errors").Array()
	fields.Value(0).Object().Value("field").String().IsEqual("email")
	fields.Value(1).Object().Value("field").String().IsEqual("password")
}

func TestLogoutUser(t *testing.T) {
	env := setupTest(t)
	user := newTestUser(t, false)

	response := env.expect.GET("/logout").
		WithCookie("session", env.sessionCookie(t, user)).
		Expect().
		Status(http.StatusSeeOther)

	response.Header("Location").IsEqual("/")
	response.Cookie("session").Value().IsEmpty()
}

func registrationForm(request *httpexpect.Request, password, confirmation string) *httpexpect.Request {
	return request.
		WithFormField("email", "Anna.Nowak@example.com").
		WithFormField("password", password).
		WithFormField("password_confirm", confirmation).
		WithFormField("name", "Anna").
		WithFormField("last_name", "<b>Nowak</b>").
		WithFormField("city", "Gdansk").
		WithFormField("zip_code", "80-001").
		WithFormField("street", "Dluga").
		WithFormField("house_number", "12").
		WithFormField("flat_number", "")
}

func TestRegisterNewUser(t *testing.T) {
	env := setupTest(t)
	email := "anna.nowak@example.com"

	env.poolMock.ExpectBegin()
	env.poolMock.ExpectQuery(regexp.QuoteMeta(lockByEmailQuery)).
		WithArgs(email).
		WillReturnError(pgx.ErrNoRows)
	env.poolMock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), email, pgxmock.AnyArg(), "Anna", "Nowak", "Gdansk", "80-001", "Dluga", "12", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	env.poolMock.ExpectCommit()

	var link string
	env.mailMgr.On("SendActivationMail", email, "Anna", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { link = args.String(2) }).
		Return(nil)

	response := registrationForm(env.expect.POST("/register"), testPassword, testPassword).
		Expect().
		Status(http.StatusSeeOther)
	response.Header("Location").IsEqual("/login")
	assertFlashSuccess(t, response)

	prefix := env.cfg.BaseURL + "/confirm_email/"
	require.True(t, strings.HasPrefix(link, prefix), link)
	subject, err := env.tokenMgr.Verify(strings.TrimPrefix(link, prefix), managers.PurposeConfirmEmail, env.cfg.TokenMaxAge)
	require.NoError(t, err)
	assert.Equal(t, email, subject)
}

func TestRegisterRefreshesPendingAccount(t *testing.T) {
	env := setupTest(t)
	email := "anna.nowak@example.com"
	userId := uuid.New()

	env.poolMock.ExpectBegin()
	env.poolMock.ExpectQuery(regexp.QuoteMeta(lockByEmailQuery)).
		WithArgs(email).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "active"}).AddRow(userId, false))
	env.poolMock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password = $1, name = $2")).
		WithArgs(pgxmock.AnyArg(), "Anna", "Nowak", "Gdansk", "80-001", "Dluga", "12", "", userId).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	env.poolMock.ExpectCommit()
	env.mailMgr.On("SendActivationMail", email, "Anna", mock.AnythingOfType("string")).Return(nil)

	registrationForm(env.expect.POST("/register"), testPassword, testPassword).
		Expect().
		Status(http.StatusSeeOther).
		Header("Location").IsEqual("/login")
}

func TestRegisterRejectsActiveEmail(t *testing.T) {
	env := setupTest(t)

	env.poolMock.ExpectBegin()
	env.poolMock.ExpectQuery(regexp.QuoteMeta(lockByEmailQuery)).
		WithArgs("anna.nowak@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "active"}).AddRow(uuid.New(), true))
	env.poolMock.ExpectRollback()

	response := registrationForm(env.expect.POST("/register"), testPassword, testPassword).
		Expect().
		Status(http.StatusSeeOther)
	response.Header("Location").IsEqual("/register")
	assertFlashCode(t, response, schemas.EmailTaken.Code)
	env.mailMgr.AssertNotCalled(t, "SendActivationMail", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterConcurrentInsertIsEmailTaken(t *testing.T) {
	env := setupTest(t)

	env.poolMock.ExpectBegin()
	env.poolMock.ExpectQuery(regexp.QuoteMeta(lockByEmailQuery)).WillReturnError(pgx.ErrNoRows)
	env.poolMock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnError(&pgconn.PgError{Code: "23505"})
	env.poolMock.ExpectRollback()

	response := registrationForm(env.expect.POST("/register"), testPassword, testPassword).
		Expect().
		Status(http.StatusSeeOther)
	assertFlashCode(t, response, schemas.EmailTaken.Code)
}

func TestRegisterKeepsNoAccountWhenMailFails(t *testing.T) {
	env := setupTest(t)

	env.poolMock.ExpectBegin()
	env.poolMock.ExpectQuery(regexp.QuoteMeta(lockByEmailQuery)).WillReturnError(pgx.ErrNoRows)
	env.poolMock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	env.poolMock.ExpectRollback()
	env.mailMgr.On("SendActivationMail", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("mailgun unavailable"))

	registrationForm(env.expect.POST("/register"), testPassword, testPassword).
		Expect().
		Status(http.StatusInternalServerError).
		JSON().Object().Value("error").Object().Value("code").String().IsEqual(schemas.EmailNotSent.Code)
}

func TestRegisterRejectsInvalidPasswords(t *testing.T) {
	testCases := []struct {
		name         string
		password     string
		confirmation string
		field        string
		rule         string
	}{
		{"TooShort", "Ab1.", "Ab1.", "password", "min"},
		{"NoSpecialCharacter", "Password123", "Password123", "password", "password_validation"},
		{"NoDigit", "Password.abc", "Password.abc", "password", "password_validation"},
		{"Mismatch", testPassword, testPassword + "x", "password_confirm", "eqfield"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := setupTest(t)

			fields := registrationForm(env.expect.POST("/register"), tc.password, tc.confirmation).
				Expect().
				Status(http.StatusBadRequest).
				JSON().Object().Value("errors").Array()

			fields.Length().IsEqual(1)
			fields.Value(0).Object().Value("field").String().IsEqual(tc.field)
			fields.Value(0).Object().Value("rule").String().IsEqual(tc.rule)
		})
	}
}

func TestConfirmEmail(t *testing.T) {
	env := setupTest(t)
	email := "anna.nowak@example.com"
	userId := uuid.New()

	token, err := env.tokenMgr.Issue(email, managers.PurposeConfirmEmail)
	require.NoError(t, err)

	env.poolMock.ExpectBegin()
	env.poolMock.ExpectQuery(regexp.QuoteMeta(lockByEmailQuery)).
		WithArgs(email).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "active"}).AddRow(userId, false))
	env.poolMock.ExpectExec(regexp.QuoteMeta("UPDATE users SET active = TRUE WHERE user_id = $1")).
		WithArgs(userId).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	env.poolMock.ExpectCommit()

	response := env.expect.GET("/confirm_email/" + token).
		Expect().
		Status(http.StatusSeeOther)
	response.Header("Location").IsEqual("/login")
	assertFlashSuccess(t, response)
}

func TestConfirmEmailOfActiveAccount(t *testing.T) {
	env := setupTest(t)

	token, err := env.tokenMgr.Issue("anna.nowak@example.com", managers.PurposeConfirmEmail)
	require.NoError(t, err)

	env.poolMock.ExpectBegin()
	env.poolMock.ExpectQuery(regexp.QuoteMeta(lockByEmailQuery)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "active"}).AddRow(uuid.New(), true))
	env.poolMock.ExpectRollback()

	response := env.expect.GET("/confirm_email/" + token).
		Expect().
		Status(http.StatusSeeOther)
	response.Header("Location").IsEqual("/")
	assertFlashCode(t, response, schemas.AccountAlreadyActive.Code)
}

func TestConfirmEmailRejectsInactiveLinks(t *testing.T) {
	testCases := []struct {
		name  string
		token func(env *testEnv) string
	}{
		{"Expired", func(env *testEnv) string {
			token, _ := env.tokenMgr.Issue("anna.nowak@example.com", managers.PurposeConfirmEmail)
			env.clock.current = env.clock.current.Add(env.cfg.TokenMaxAge + time.Second)
			return token
		}},
		{"OtherPurpose", func(env *testEnv) string {
			token, _ := env.tokenMgr.Issue("anna.nowak@example.com", managers.PurposePwRecovery)
			return token
		}},
		{"OtherSecret", func(env *testEnv) string {
			token, _ := managers.NewTokenManager([]byte("another-secret-another-secret-00")).
				Issue("anna.nowak@example.com", managers.PurposeConfirmEmail)
			return token
		}},
		{"Garbage", func(env *testEnv) string {
			return "garbage"
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := setupTest(t)

			response := env.expect.GET("/confirm_email/" + tc.token(env)).
				Expect().
				Status(http.StatusSeeOther)
			response.Header("Location").IsEqual("/")
			assertFlashCode(t, response, schemas.LinkInactive.Code)
		})
	}
}

func TestRequestRecoveryAnswersUniformly(t *testing.T) {
	env := setupTest(t)
	tokenId := uuid.New()

	env.poolMock.ExpectBegin()
	env.poolMock.ExpectQuery(regexp.QuoteMeta(recoveryQuery)).
		WithArgs("jan.kowalski@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"token_id"}).AddRow(tokenId))
	env.poolMock.ExpectCommit()

	var link string
	env.mailMgr.On("SendRecoveryMail", "jan.kowalski@example.com", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { link = args.String(1) }).
		Return(nil)

	known := env.expect.POST("/pw_recovery").
		WithFormField("email", "jan.kowalski@example.com").
		Expect().
		Status(http.StatusSeeOther)
	known.Header("Location").IsEqual("/login")
	knownMessage := assertFlashSuccess(t, known)

	prefix := env.cfg.BaseURL + "/pw_recovery/"
	require.True(t, strings.HasPrefix(link, prefix), link)
	subject, err := env.tokenMgr.Verify(strings.TrimPrefix(link, prefix), managers.PurposePwRecovery, env.cfg.TokenMaxAge)
	require.NoError(t, err)
	assert.Equal(t, tokenId.String(), subject)

	// An unknown address gets the same answer and no mail
	env.poolMock.ExpectBegin()
	env.poolMock.ExpectQuery(regexp.QuoteMeta(recoveryQuery)).
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)
	env.poolMock.ExpectCommit()

	unknown := env.expect.POST("/pw_recovery").
		WithFormField("email", "nobody@example.com").
		Expect().
		Status(http.StatusSeeOther)
	unknown.Header("Location").IsEqual("/login")
	assert.Equal(t, knownMessage, assertFlashSuccess(t, unknown))
	env.mailMgr.AssertNumberOfCalls(t, "SendRecoveryMail", 1)
}

func TestRequestRecoveryHidesMailFailures(t *testing.T) {
	env := setupTest(t)

	env.poolMock.ExpectBegin()
	env.poolMock.ExpectQuery(regexp.QuoteMeta(recoveryQuery)).
		WillReturnRows(pgxmock.NewRows([]string{"token_id"}).AddRow(uuid.New()))
	env.poolMock.ExpectCommit()
	env.mailMgr.On("SendRecoveryMail", mock.Anything, mock.Anything).Return(errors.New("smtp timeout"))

	response := env.expect.POST("/pw_recovery").
		WithFormField("email", "jan.kowalski@example.com").
		Expect().
		Status(http.StatusSeeOther)
	response.Header("Location").IsEqual("/login")
	assertFlashSuccess(t, response)
}

func TestCompleteRecovery(t *testing.T) {
	env := setupTest(t)
	user := newTestUser(t, false)

	token, err := env.tokenMgr.Issue(user.TokenID.String(), managers.PurposePwRecovery)
	require.NoError(t, err)

	env.revocationMgr.On("Consume", mock.Anything, mock.AnythingOfType("string"), env.cfg.TokenMaxAge).Return(true, nil)

	env.poolMock.ExpectBegin()
	env.poolMock.ExpectQuery(regexp.QuoteMeta(lockByTokenQuery)).
		WithArgs(user.TokenID.String()).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "email"}).AddRow(user.ID, user.Email))
	env.poolMock.ExpectExec(regexp.QuoteMeta(rotatePassword)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), user.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	env.poolMock.ExpectCommit()

	var password string
	env.mailMgr.On("SendNewPasswordMail", user.Email, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { password = args.String(1) }).
		Return(nil)

	response := env.expect.GET("/pw_recovery/" + token).
		Expect().
		Status(http.StatusSeeOther)
	response.Header("Location").IsEqual("/login")
	response.Cookie("session").Value().IsEmpty()
	assertFlashSuccess(t, response)

	assert.True(t, utils.IsStrongPassword(password), password)
	env.revocationMgr.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestCompleteRecoveryRejectsUsedLink(t *testing.T) {
	env := setupTest(t)

	token, err := env.tokenMgr.Issue(uuid.NewString(), managers.PurposePwRecovery)
	require.NoError(t, err)
	env.revocationMgr.On("Consume", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	response := env.expect.GET("/pw_recovery/" + token).
		Expect().
		Status(http.StatusSeeOther)
	response.Header("Location").IsEqual("/")
	assertFlashCode(t, response, schemas.LinkInactive.Code)
}

func TestCompleteRecoveryRejectsRotatedTokenId(t *testing.T) {
	env := setupTest(t)

	token, err := env.tokenMgr.Issue(uuid.NewString(), managers.PurposePwRecovery)
	require.NoError(t, err)
	env.revocationMgr.On("Consume", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	env.revocationMgr.On("Release", mock.Anything, mock.Anything).Return(nil)

	env.poolMock.ExpectBegin()
	env.poolMock.ExpectQuery(regexp.QuoteMeta(lockByTokenQuery)).WillReturnError(pgx.ErrNoRows)
	env.poolMock.ExpectRollback()

	response := env.expect.GET("/pw_recovery/" + token).
		Expect().
		Status(http.StatusSeeOther)
	assertFlashCode(t, response, schemas.LinkInactive.Code)
}

func TestCompleteRecoveryKeepsPasswordAndLinkWhenMailFails(t *testing.T) {
	env := setupTest(t)
	user := newTestUser(t, false)

	token, err := env.tokenMgr.Issue(user.TokenID.String(), managers.PurposePwRecovery)
	require.NoError(t, err)

	var consumed, released string
	env.revocationMgr.On("Consume", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) { consumed = args.String(1) }).
		Return(true, nil)
	env.revocationMgr.On("Release", mock.Anything, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { released = args.String(1) }).
		Return(nil)

	env.poolMock.ExpectBegin()
	env.poolMock.ExpectQuery(regexp.QuoteMeta(lockByTokenQuery)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "email"}).AddRow(user.ID, user.Email))
	env.poolMock.ExpectExec(regexp.QuoteMeta(rotatePassword)).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	env.poolMock.ExpectRollback()
	env.mailMgr.On("SendNewPasswordMail", user.Email, mock.Anything).Return(errors.New("mailgun unavailable"))

	env.expect.GET("/pw_recovery/" + token).
		Expect().
		Status(http.StatusInternalServerError).
		JSON().Object().Value("error").Object().Value("code").String().IsEqual(schemas.EmailNotSent.Code)

	// The link stays usable for another attempt
	require.NotEmpty(t, consumed)
	assert.Equal(t, consumed, released)
}

func TestUserPage(t *testing.T) {
	env := setupTest(t)
	user := newTestUser(t, false)
	graveId := uuid.New()
	parcelTypeId := uuid.New()
	now := time.Now()

	cookie := env.sessionCookie(t, user)
	env.poolMock.ExpectBegin()
	env.poolMock.ExpectQuery(regexp.QuoteMeta("FROM graves WHERE user_id = $1 ORDER BY created_at")).
		WithArgs(user.ID).
		WillReturnRows(pgxmock.NewRows([]string{"grave_id", "user_id", "parcel_id", "name", "last_name", "day_of_birth", "day_of_death", "created_at"}).
			AddRow(graveId, user.ID, uuid.New(), "Adam", "Kowalski", now.AddDate(-80, 0, 0), now.AddDate(0, -1, 0), now))
	env.poolMock.ExpectQuery(regexp.QuoteMeta("FROM parcels p ORDER BY p.position_y, p.position_x")).
		WillReturnRows(pgxmock.NewRows([]string{"parcel_id", "position_x", "position_y", "parcel_type_id", "exists"}).
			AddRow(uuid.New(), 1, 1, parcelTypeId, true).
			AddRow(uuid.New(), 2, 1, parcelTypeId, false).
			AddRow(uuid.New(), 12, 1, parcelTypeId, false))
	env.poolMock.ExpectCommit()

	page := env.expect.GET("/user").
		WithCookie("session", cookie).
		Expect().
		Status(http.StatusOK).
		JSON().Object()

	page.Value("page").String().IsEqual("user")
	page.Value("user").Object().Value("email").String().IsEqual(user.Email)
	data := page.Value("data").Object()
	data.Value("max_p").Number().IsEqual(12)
	data.Value("graves").Array().Value(0).Object().Value("id").String().IsEqual(graveId.String())
	data.Value("parcels").Array().Value(0).Object().Value("occupied").Boolean().IsTrue()
}

func TestChangePasswordRotatesSessions(t *testing.T) {
	env := setupTest(t)
	user := newTestUser(t, false)
	oldTokenId := user.TokenID

	cookie := env.sessionCookie(t, user)
	env.poolMock.ExpectBegin()
	env.poolMock.ExpectExec(regexp.QuoteMeta(rotatePassword)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), user.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	env.poolMock.ExpectCommit()

	response := env.expect.POST("/user/password").
		WithCookie("session", cookie).
		WithFormField("old_password", testPassword).
		WithFormField("password", "New.Password456").
		WithFormField("password_confirm", "New.Password456").
		Expect().
		Status(http.StatusSeeOther)
	response.Header("Location").IsEqual("/user")

	newTokenId, err := env.tokenMgr.Verify(response.Cookie("session").Value().Raw(), managers.PurposeSession, env.cfg.SessionMaxAge)
	require.NoError(t, err)
	assert.NotEqual(t, oldTokenId.String(), newTokenId)

	// The old cookie no longer resolves to a user
	env.poolMock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE token_id = $1 AND active = TRUE")).
		WithArgs(oldTokenId.String()).
		WillReturnError(pgx.ErrNoRows)

	env.expect.GET("/user").
		WithCookie("session", cookie).
		Expect().
		Status(http.StatusSeeOther).
		Header("Location").IsEqual("/login?next=%2Fuser")
}

func TestChangePasswordRejectsWrongOldPassword(t *testing.T) {
	env := setupTest(t)
	user := newTestUser(t, false)

	response := env.expect.POST("/user/password").
		WithCookie("session", env.sessionCookie(t, user)).
		WithFormField("old_password", "Wrong.Password123").
		WithFormField("password", "New.Password456").
		WithFormField("password_confirm", "New.Password456").
		Expect().
		Status(http.StatusSeeOther)
	response.Header("Location").IsEqual("/user/password")
	assertFlashCode(t, response, schemas.InvalidOldPassword.Code)
}

func TestChangeData(t *testing.T) {
	env := setupTest(t)
	user := newTestUser(t, false)

	cookie := env.sessionCookie(t, user)
	env.poolMock.ExpectBegin()
	env.poolMock.ExpectExec(regexp.QuoteMeta("UPDATE users SET name = $1")).
		WithArgs("Jan", "Kowalski", "Warszawa", "00-001", "Marszalkowska", "5", "3", user.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	env.poolMock.ExpectCommit()

	env.expect.POST("/user/data").
		WithCookie("session", cookie).
		WithFormField("old_password", testPassword).
		WithFormField("name", "Jan").
		WithFormField("last_name", "Kowalski").
		WithFormField("city", "Warszawa").
		WithFormField("zip_code", "00-001").
		WithFormField("street", "Marszalkowska").
		WithFormField("house_number", "5").
		WithFormField("flat_number", "3").
		Expect().
		Status(http.StatusSeeOther).
		Header("Location").IsEqual("/user")
}
