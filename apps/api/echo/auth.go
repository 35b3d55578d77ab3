package echoapi

import (
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/edupoints/core"
	"github.com/trezcool/edupoints/core/session"
	"github.com/trezcool/edupoints/core/user"
)

const (
	tokenContextKey   = "userToken"
	sessionContextKey = "session"
	accountContextKey = "account"
)

// Claims represents the authorization claims transmitted via a JWT.
// The subject is the browsing-session id the account is stored under.
type Claims struct {
	jwt.StandardClaims
	Role user.Role `json:"role,omitempty"`
}

type authenticator struct {
	conf      *core.Config
	sessions  *session.Manager
	jwtConfig middleware.JWTConfig
}

func newAuthenticator(conf *core.Config, sessions *session.Manager) *authenticator {
	return &authenticator{
		conf:     conf,
		sessions: sessions,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    tokenContextKey,
			Claims:        new(Claims),
		},
	}
}

func (a *authenticator) newClaims(sid string, role user.Role) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.conf.AppName,
			Subject:   sid,
			ExpiresAt: now.Add(a.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Role: role,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func (a *authenticator) GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// requestSessionID returns the session id of a valid bearer token, if the request carries one.
// Used on routes that are not behind the JWT middleware.
func (a *authenticator) requestSessionID(ctx echo.Context) (string, bool) {
	auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", false
	}

	claims := new(Claims)
	token, err := jwt.ParseWithClaims(auth[len(prefix):], claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != a.jwtConfig.SigningMethod {
			return nil, errors.Errorf("unexpected jwt signing method=%v", t.Header["alg"])
		}
		return a.jwtConfig.SigningKey, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

// sessionMiddleware resolves the Store of the token's session and requires it to be authenticated.
func (a *authenticator) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		store, err := a.sessions.Get(ctx.Request().Context(), claims.Subject)
		if err != nil {
			return errors.Wrap(err, "getting session")
		}
		acct, ok := store.CurrentUser()
		if !ok {
			return errUnauthorized
		}
		ctx.Set(sessionContextKey, store)
		ctx.Set(accountContextKey, acct)
		return next(ctx)
	}
}

func roleMiddleware(role user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			acct, err := getContextAccount(ctx)
			if err != nil {
				return err
			}
			if acct.Identity().Role != role {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextSession(ctx echo.Context) (*session.Store, string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return nil, "", err
	}
	if store, ok := ctx.Get(sessionContextKey).(*session.Store); ok {
		return store, claims.Subject, nil
	}
	return nil, "", errUnauthorized
}

func getContextAccount(ctx echo.Context) (user.Account, error) {
	if acct, ok := ctx.Get(accountContextKey).(user.Account); ok {
		return acct, nil
	}
	return nil, errUnauthorized
}
