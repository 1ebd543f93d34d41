package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/entity"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// AudienceSession 标记登录会话令牌。
	AudienceSession = "session"
	// AudienceReset 标记密码重置令牌，与会话令牌不可互换。
	AudienceReset = "password-reset"
)

var (
	// ErrTokenExpired indicates a correctly signed token whose validity window
	// has passed. Callers surface this differently from a malformed token.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed covers every other verification failure: bad
	// signature, wrong audience, garbage input.
	ErrTokenMalformed = errors.New("token malformed")
)

// Claims represents JWT claims for authenticated requests.
type Claims struct {
	UserID uint   `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Manager encapsulates JWT generation and validation for both session and
// password-reset tokens. Validity is entirely signature + expiry; nothing is
// persisted server side.
type Manager struct {
	secret        []byte
	issuer        string
	sessionExpiry time.Duration
	resetExpiry   time.Duration
}

// NewManager creates a new JWT manager.
func NewManager(secret, issuer string, sessionExpiry, resetExpiry time.Duration) (*Manager, error) {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	if sessionExpiry <= 0 {
		sessionExpiry = time.Hour * 24 * 7
	}
	if resetExpiry <= 0 {
		resetExpiry = time.Hour
	}
	if strings.TrimSpace(issuer) == "" {
		issuer = "storefront"
	}
	return &Manager{
		secret:        []byte(trimmed),
		issuer:        issuer,
		sessionExpiry: sessionExpiry,
		resetExpiry:   resetExpiry,
	}, nil
}

// GenerateSessionToken issues a signed session JWT for the provided user.
func (m *Manager) GenerateSessionToken(user *entity.User) (string, time.Time, error) {
	return m.generate(user, AudienceSession, m.sessionExpiry)
}

// GenerateResetToken issues a short-lived password-reset JWT for the provided
// user. The distinct audience keeps it out of the session verification path.
func (m *Manager) GenerateResetToken(user *entity.User) (string, time.Time, error) {
	return m.generate(user, AudienceReset, m.resetExpiry)
}

func (m *Manager) generate(user *entity.User, audience string, expiry time.Duration) (string, time.Time, error) {
	if m == nil {
		return "", time.Time{}, errors.New("jwt manager is nil")
	}
	if user == nil || user.ID == 0 {
		return "", time.Time{}, errors.New("invalid user for token generation")
	}
	now := time.Now().UTC()
	expiresAt := now.Add(expiry)

	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseSessionToken validates a session token and returns its claims.
func (m *Manager) ParseSessionToken(tokenString string) (*Claims, error) {
	return m.parse(tokenString, AudienceSession)
}

// ParseResetToken validates a password-reset token and returns its claims.
func (m *Manager) ParseResetToken(tokenString string) (*Claims, error) {
	return m.parse(tokenString, AudienceReset)
}

func (m *Manager) parse(tokenString, audience string) (*Claims, error) {
	if m == nil {
		return nil, errors.New("jwt manager is nil")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(audience),
	)

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
