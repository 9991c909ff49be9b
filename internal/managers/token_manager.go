package managers

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	PurposeConfirmEmail = "confirm-email"
	PurposePwRecovery   = "pw-recovery"
	PurposeSession      = "session"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrTokenMalformed = errors.New("token malformed")
)

// TokenMgr issues and verifies signed, purpose-scoped tokens.
type TokenMgr interface {
	Issue(subject, purpose string) (string, error)
	Verify(token, purpose string, maxAge time.Duration) (string, error)
	VerifyClaims(token, purpose string, maxAge time.Duration) (*TokenClaims, error)
}

// TokenClaims are the claims carried by every token.
type TokenClaims struct {
	Purpose string `json:"pur"`
	jwt.RegisteredClaims
}

// TokenManager signs tokens with HS256. Every purpose gets its own key derived from the secret,
// so a token issued for one purpose never verifies for another.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

func NewTokenManager(secret []byte) *TokenManager {
	log.Info("Initializing token manager")
	return &TokenManager{secret: secret, now: time.Now}
}

// WithClock replaces the clock used for issuing and age checks.
func (tm *TokenManager) WithClock(now func() time.Time) *TokenManager {
	tm.now = now
	return tm
}

func (tm *TokenManager) purposeKey(purpose string) []byte {
	mac := hmac.New(sha256.New, tm.secret)
	mac.Write([]byte(purpose))
	return mac.Sum(nil)
}

// Issue returns a token binding subject to purpose, stamped with the current time.
func (tm *TokenManager) Issue(subject, purpose string) (string, error) {
	claims := &TokenClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(tm.now()),
			ID:       uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.purposeKey(purpose))
}

// Verify checks the token against purpose and maxAge and returns its subject.
func (tm *TokenManager) Verify(token, purpose string, maxAge time.Duration) (string, error) {
	claims, err := tm.VerifyClaims(token, purpose, maxAge)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// VerifyClaims checks the token against purpose and maxAge and returns all of its claims.
// A token exactly maxAge old is still accepted.
func (tm *TokenManager) VerifyClaims(token, purpose string, maxAge time.Duration) (*TokenClaims, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return tm.purposeKey(purpose), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuedAt(), jwt.WithTimeFunc(tm.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, ErrTokenMalformed
		}
		return nil, ErrTokenInvalid
	}

	if claims.Purpose != purpose {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return nil, ErrTokenMalformed
	}

	if tm.now().Sub(claims.IssuedAt.Time) > maxAge {
		return nil, ErrTokenExpired
	}

	return claims, nil
}
