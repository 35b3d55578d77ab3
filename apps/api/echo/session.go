package echoapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/edupoints/core/loader"
	"github.com/trezcool/edupoints/core/session"
	"github.com/trezcool/edupoints/core/user"
)

type (
	LoginResponse struct {
		Token string       `json:"token"`
		User  user.Account `json:"user"`
	}

	MeResponse struct {
		User         user.Account      `json:"user"`
		State        session.State     `json:"state"`
		LastError    string            `json:"lastError,omitempty"`
		Capabilities user.Capabilities `json:"capabilities"`
	}

	sessionAPI struct {
		auth     *authenticator
		sessions *session.Manager
		loaders  *loader.Registry
		deps     ServerDeps
	}
)

func registerSessionAPI(g *echo.Group, authed []echo.MiddlewareFunc, auth *authenticator, deps ServerDeps) {
	api := sessionAPI{
		auth:     auth,
		sessions: deps.Sessions,
		loaders:  deps.Loaders,
		deps:     deps,
	}

	sg := g.Group("/auth")

	// un-authed endpoints
	sg.POST("/login", api.login)

	// authed endpoints
	ag := sg.Group("", authed...)
	ag.POST("/logout", api.logout)
	ag.GET("/me", api.me)
}

// login authenticates under the session of the request's token, if any, or a new session.
// A failed login leaves the session's current account, if any, in place.
func (api *sessionAPI) login(ctx echo.Context) error {
	var data user.LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	sid, ok := api.auth.requestSessionID(ctx)
	if !ok {
		sid = uuid.New().String()
	}
	reqCtx := ctx.Request().Context()
	store, err := api.sessions.Get(reqCtx, sid)
	if err != nil {
		return errors.Wrap(err, "getting session")
	}

	acct, err := store.Login(reqCtx, data.Email, data.Password, data.Role)
	if err != nil {
		if !ok {
			api.sessions.Forget(sid)
		}
		return err
	}

	token, err := api.auth.GenerateToken(api.auth.newClaims(sid, acct.Identity().Role))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: acct})
}

func (api *sessionAPI) logout(ctx echo.Context) error {
	store, sid, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	err = store.Logout(ctx.Request().Context())
	api.sessions.Forget(sid)
	api.loaders.Forget(sid + ":")
	if err != nil {
		return errors.Wrap(err, "logging out")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *sessionAPI) me(ctx echo.Context) error {
	store, _, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	acct, err := getContextAccount(ctx)
	if err != nil {
		return err
	}
	lastErr, _ := store.LastError()

	return ctx.JSON(http.StatusOK, MeResponse{
		User:         acct,
		State:        store.State(),
		LastError:    lastErr,
		Capabilities: user.CapabilitiesFor(acct.Identity().Role),
	})
}
