package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/edupoints/core/activity"
	"github.com/trezcool/edupoints/core/leaderboard"
	"github.com/trezcool/edupoints/core/reward"
	"github.com/trezcool/edupoints/core/user"
)

const (
	dashboardActivities  = 10
	dashboardLeaderboard = 10
	dashboardRewards     = 3
)

type (
	DashboardResponse struct {
		Stats       user.DashboardStats `json:"stats"`
		Activities  []activity.Activity `json:"activities"`
		Leaderboard []leaderboard.Entry `json:"leaderboard"`
		Rewards     []reward.Reward     `json:"rewards"`
	}

	dashboardAPI struct {
		deps ServerDeps
	}
)

func registerDashboardAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := dashboardAPI{deps: deps}
	g.GET("/dashboard", api.retrieve, authed...)
}

func (api *dashboardAPI) retrieve(ctx echo.Context) error {
	_, sid, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	acct, err := getContextAccount(ctx)
	if err != nil {
		return err
	}

	var resp DashboardResponse
	reqCtx := ctx.Request().Context()
	ldr := api.deps.Loaders.Get(sid + ":dashboard")
	err = ldr.Load(reqCtx, api.deps.Conf.Mock.DashboardDelay, func() error {
		resp, err = api.build(ctx, acct)
		return err
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *dashboardAPI) build(ctx echo.Context, acct user.Account) (DashboardResponse, error) {
	gen := api.deps.Generator
	reqCtx := ctx.Request().Context()

	catalog, err := api.deps.RewardSvc.Catalog(reqCtx)
	if err != nil {
		return DashboardResponse{}, errors.Wrap(err, "loading reward catalog")
	}
	board := gen.Leaderboard(dashboardLeaderboard)

	resp := DashboardResponse{
		Leaderboard: board,
		Rewards:     catalog[:min(dashboardRewards, len(catalog))],
	}

	switch a := acct.(type) {
	case *user.Student:
		rdms, err := api.deps.RewardSvc.ByStudent(reqCtx, a.ID)
		if err != nil {
			return DashboardResponse{}, errors.Wrap(err, "loading redemptions")
		}
		resp.Stats = gen.DashboardStats(a, len(rdms), nextRewardCost(catalog, a.TotalPoints))
		resp.Activities = gen.Activities(dashboardActivities, a.ID, "", a.ClassID)

	case *user.Teacher:
		resp.Stats = gen.DashboardStats(a, 0, 0)
		var classID string
		if len(a.ClassIDs) > 0 {
			classID = a.ClassIDs[0]
		}
		// spread the activities over the students of the board
		resp.Activities = make([]activity.Activity, dashboardActivities)
		for i := range resp.Activities {
			var studentID string
			if len(board) > 0 {
				studentID = board[i%len(board)].StudentID
			}
			resp.Activities[i] = gen.Activity(studentID, a.ID, classID)
		}
	}
	return resp, nil
}

// nextRewardCost is the cost of the cheapest reward the student cannot afford yet, 0 if none.
func nextRewardCost(catalog []reward.Reward, points int) int {
	var cost int
	for _, rwd := range catalog {
		if rwd.PointsCost > points && (cost == 0 || rwd.PointsCost < cost) {
			cost = rwd.PointsCost
		}
	}
	return cost
}
