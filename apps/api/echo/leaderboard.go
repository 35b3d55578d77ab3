package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/edupoints/core/leaderboard"
)

const leaderboardSize = 20

type (
	LeaderboardResponse struct {
		Category leaderboard.Filter         `json:"category"`
		Options  []leaderboard.FilterOption `json:"options"`
		Entries  []leaderboard.Entry        `json:"entries"`
		Podium   []leaderboard.Entry        `json:"podium"`
	}

	leaderboardAPI struct {
		deps ServerDeps
	}
)

func registerLeaderboardAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := leaderboardAPI{deps: deps}
	g.GET("/leaderboard", api.query, authed...)
}

// query serves a freshly generated board. Changing the category takes the shorter filter delay
// and supersedes any board still loading for the same session.
func (api *leaderboardAPI) query(ctx echo.Context) error {
	_, sid, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	q := leaderboard.Query{Category: leaderboard.Filter(ctx.QueryParam("category"))}
	if err = q.Validate(api.deps.Validate); err != nil {
		return err
	}

	delay := api.deps.Conf.Mock.LeaderboardDelay
	if q.Category != "" {
		delay = api.deps.Conf.Mock.FilterDelay
	}

	var resp LeaderboardResponse
	ldr := api.deps.Loaders.Get(sid + ":leaderboard")
	err = ldr.Load(ctx.Request().Context(), delay, func() error {
		entries := api.deps.Generator.Leaderboard(leaderboardSize)
		resp = LeaderboardResponse{
			Category: q.Filter(),
			Options:  leaderboard.FilterOptions,
			Entries:  entries,
			Podium:   leaderboard.Podium(entries),
		}
		return nil
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, resp)
}
