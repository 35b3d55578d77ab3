package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/edupoints/core/reward"
	"github.com/trezcool/edupoints/core/user"
)

type (
	// RewardsResponse holds the student view (available, redeemed)
	// or the teacher view (pending, approved).
	RewardsResponse struct {
		Available []reward.Reward `json:"available,omitempty"`
		Redeemed  []reward.Item   `json:"redeemed,omitempty"`
		Pending   []reward.Item   `json:"pending,omitempty"`
		Approved  []reward.Item   `json:"approved,omitempty"`
	}

	rewardAPI struct {
		deps ServerDeps
		svc  *reward.Service
	}
)

func registerRewardAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := rewardAPI{deps: deps, svc: deps.RewardSvc}

	rg := g.Group("/rewards", authed...)
	rg.GET("", api.query)
	rg.POST("/:id/redeem", api.redeem, roleMiddleware(user.RoleStudent))

	dg := g.Group("/redemptions", append(authed, roleMiddleware(user.RoleTeacher))...)
	dg.POST("/:id/approve", api.approve)
	dg.POST("/:id/reject", api.reject)
}

func (api *rewardAPI) query(ctx echo.Context) error {
	_, sid, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	acct, err := getContextAccount(ctx)
	if err != nil {
		return err
	}

	var resp RewardsResponse
	ldr := api.deps.Loaders.Get(sid + ":rewards")
	err = ldr.Load(ctx.Request().Context(), api.deps.Conf.Mock.RewardsDelay, func() error {
		resp, err = api.build(ctx, acct)
		return err
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *rewardAPI) build(ctx echo.Context, acct user.Account) (RewardsResponse, error) {
	reqCtx := ctx.Request().Context()
	var resp RewardsResponse

	if acct.Identity().Role == user.RoleTeacher {
		for status, dst := range map[reward.Status]*[]reward.Item{
			reward.StatusPending:  &resp.Pending,
			reward.StatusApproved: &resp.Approved,
		} {
			rdms, err := api.svc.ByStatus(reqCtx, status)
			if err != nil {
				return RewardsResponse{}, errors.Wrapf(err, "loading %s redemptions", status)
			}
			if *dst, err = api.svc.Items(reqCtx, rdms); err != nil {
				return RewardsResponse{}, errors.Wrap(err, "loading redemption items")
			}
		}
		return resp, nil
	}

	catalog, err := api.svc.Catalog(reqCtx)
	if err != nil {
		return RewardsResponse{}, errors.Wrap(err, "loading reward catalog")
	}
	rdms, err := api.svc.ByStudent(reqCtx, acct.Identity().ID)
	if err != nil {
		return RewardsResponse{}, errors.Wrap(err, "loading redemptions")
	}
	if resp.Redeemed, err = api.svc.Items(reqCtx, rdms); err != nil {
		return RewardsResponse{}, errors.Wrap(err, "loading redemption items")
	}
	resp.Available = catalog
	return resp, nil
}

func (api *rewardAPI) redeem(ctx echo.Context) error {
	acct, err := getContextAccount(ctx)
	if err != nil {
		return err
	}
	student, ok := acct.(*user.Student)
	if !ok {
		return errHttpForbidden
	}

	rdm, err := api.svc.Redeem(ctx.Request().Context(), *student, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "redeeming reward")
	}
	return ctx.JSON(http.StatusCreated, rdm)
}

func (api *rewardAPI) approve(ctx echo.Context) error {
	return api.resolve(ctx, api.svc.Approve)
}

func (api *rewardAPI) reject(ctx echo.Context) error {
	return api.resolve(ctx, api.svc.Reject)
}

func (api *rewardAPI) resolve(ctx echo.Context, resolveFn func(ctx context.Context, teacher user.Teacher, id string) (reward.Redemption, error)) error {
	acct, err := getContextAccount(ctx)
	if err != nil {
		return err
	}
	teacher, ok := acct.(*user.Teacher)
	if !ok {
		return errHttpForbidden
	}

	rdm, err := resolveFn(ctx.Request().Context(), *teacher, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "resolving redemption")
	}
	return ctx.JSON(http.StatusOK, rdm)
}
