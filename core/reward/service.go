package reward

import (
	"context"
	"fmt"
	"net/mail"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/edupoints/core"
	"github.com/trezcool/edupoints/core/user"
)

// CatalogSize is the number of rewards the catalog is seeded with.
const CatalogSize = 9

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound           = errors.New("not found")
	ErrInsufficientPoints = errors.New("Not enough points to redeem this reward")
	ErrOutOfStock         = errors.New("this reward is out of stock")
	ErrAlreadyResolved    = errors.New("this redemption has already been resolved")
)

type (
	// RedemptionFilter applies AND on its set fields.
	RedemptionFilter struct {
		StudentID string
		Status    Status
	}

	Repository interface {
		QueryRewards(ctx context.Context) ([]Reward, error)
		CreateRewards(ctx context.Context, rewards ...Reward) error
		GetReward(ctx context.Context, id string) (Reward, error)
		UpdateReward(ctx context.Context, rwd Reward) (Reward, error)
		CreateRedemption(ctx context.Context, rdm Redemption) (Redemption, error)
		GetRedemption(ctx context.Context, id string) (Redemption, error)
		UpdateRedemption(ctx context.Context, rdm Redemption) (Redemption, error)
		// FilterRedemptions returns matching redemptions, oldest first.
		FilterRedemptions(ctx context.Context, filter RedemptionFilter) ([]Redemption, error)
	}

	// Generator supplies the rewards a fresh catalog is made of.
	Generator interface {
		Rewards(n int) []Reward
	}

	Service struct {
		repo    Repository
		gen     Generator
		mailSvc core.EmailService
		logger  core.Logger

		mu sync.Mutex // guards check-then-write sequences
	}
)

func NewService(repo Repository, gen Generator, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		repo:    repo,
		gen:     gen,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

// Catalog returns the available rewards, seeding the catalog on first use.
func (svc *Service) Catalog(ctx context.Context) ([]Reward, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	rewards, err := svc.repo.QueryRewards(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying rewards")
	}
	if len(rewards) > 0 {
		return rewards, nil
	}

	rewards = svc.gen.Rewards(CatalogSize)
	if err = svc.repo.CreateRewards(ctx, rewards...); err != nil {
		return nil, errors.Wrap(err, "seeding catalog")
	}
	return rewards, nil
}

// Redeem records a pending redemption of a reward by a student.
// Points are checked, not deducted.
func (svc *Service) Redeem(ctx context.Context, student user.Student, rewardID string) (Redemption, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	rwd, err := svc.repo.GetReward(ctx, rewardID)
	if err != nil {
		return Redemption{}, errors.Wrap(err, "finding reward")
	}
	if student.TotalPoints < rwd.PointsCost {
		return Redemption{}, core.NewValidationError(ErrInsufficientPoints)
	}
	if !rwd.InStock() {
		return Redemption{}, core.NewValidationError(ErrOutOfStock)
	}

	if rwd.Limited {
		if err = svc.setQuantity(ctx, rwd, *rwd.Quantity-1); err != nil {
			return Redemption{}, errors.Wrap(err, "updating reward quantity")
		}
	}

	rdm := Redemption{
		ID:           uuid.New().String(),
		StudentID:    student.ID,
		RewardID:     rwd.ID,
		RedeemedAt:   NowFunc().UTC(),
		Status:       StatusPending,
		StudentName:  student.Name,
		StudentEmail: student.Email,
	}
	created, err := svc.repo.CreateRedemption(ctx, rdm)
	if err != nil {
		if rwd.Limited {
			// give the stock back
			if qErr := svc.setQuantity(context.WithoutCancel(ctx), rwd, *rwd.Quantity); qErr != nil {
				svc.logger.Error(fmt.Sprintf("restoring quantity of reward %q", rwd.ID), qErr)
			}
		}
		return Redemption{}, errors.Wrap(err, "creating redemption")
	}
	return created, nil
}

func (svc *Service) setQuantity(ctx context.Context, rwd Reward, qty int) error {
	rwd.Quantity = &qty
	_, err := svc.repo.UpdateReward(ctx, rwd)
	return err
}

func (svc *Service) Approve(ctx context.Context, teacher user.Teacher, redemptionID string) (Redemption, error) {
	return svc.resolve(ctx, teacher, redemptionID, StatusApproved)
}

func (svc *Service) Reject(ctx context.Context, teacher user.Teacher, redemptionID string) (Redemption, error) {
	return svc.resolve(ctx, teacher, redemptionID, StatusRejected)
}

func (svc *Service) resolve(ctx context.Context, teacher user.Teacher, redemptionID string, status Status) (Redemption, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	rdm, err := svc.repo.GetRedemption(ctx, redemptionID)
	if err != nil {
		return Redemption{}, errors.Wrap(err, "finding redemption")
	}
	if err = rdm.resolve(status, teacher.ID, NowFunc().UTC()); err != nil {
		return Redemption{}, core.NewValidationError(err)
	}
	if rdm, err = svc.repo.UpdateRedemption(ctx, rdm); err != nil {
		return Redemption{}, errors.Wrap(err, "updating redemption")
	}

	rwd, err := svc.repo.GetReward(ctx, rdm.RewardID)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("finding reward %q of redemption %q: %v", rdm.RewardID, rdm.ID, err))
	}
	svc.notify(rdm, rwd)
	return rdm, nil
}

func (svc *Service) notify(rdm Redemption, rwd Reward) {
	if rdm.StudentEmail == "" {
		return
	}
	name := rwd.Name
	if name == "" {
		name = rdm.RewardID
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: rdm.StudentName, Address: rdm.StudentEmail}},
		Subject: fmt.Sprintf("Reward %q has been %s", name, rdm.Status),
		BodyStr: fmt.Sprintf("Hi %s,\n\nYour redemption of %q has been %s.\n", rdm.StudentName, name, rdm.Status),
	})
}

// Pending returns the redemptions awaiting a teacher's decision.
func (svc *Service) Pending(ctx context.Context) ([]Redemption, error) {
	return svc.ByStatus(ctx, StatusPending)
}

func (svc *Service) ByStatus(ctx context.Context, status Status) ([]Redemption, error) {
	rdms, err := svc.repo.FilterRedemptions(ctx, RedemptionFilter{Status: status})
	return rdms, errors.Wrap(err, "filtering redemptions")
}

func (svc *Service) ByStudent(ctx context.Context, studentID string) ([]Redemption, error) {
	rdms, err := svc.repo.FilterRedemptions(ctx, RedemptionFilter{StudentID: studentID})
	return rdms, errors.Wrap(err, "filtering redemptions")
}

// Items pairs each redemption with its reward. Redemptions whose reward is gone are skipped.
func (svc *Service) Items(ctx context.Context, rdms []Redemption) ([]Item, error) {
	items := make([]Item, 0, len(rdms))
	for _, rdm := range rdms {
		rwd, err := svc.repo.GetReward(ctx, rdm.RewardID)
		if err != nil {
			if errors.Cause(err) == ErrNotFound {
				continue
			}
			return nil, errors.Wrap(err, "finding reward")
		}
		items = append(items, Item{Redemption: rdm, Reward: rwd})
	}
	return items, nil
}
