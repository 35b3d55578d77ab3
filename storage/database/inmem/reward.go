package inmemdb

import (
	"context"

	"github.com/trezcool/edupoints/core/reward"
)

type rewardRepository struct {
	rewards     *rewardTable
	redemptions *redemptionTable
}

var _ reward.Repository = (*rewardRepository)(nil) // interface compliance check

func NewRewardRepository(db *DB) reward.Repository {
	return &rewardRepository{
		rewards:     db.reward,
		redemptions: db.redemption,
	}
}

func copyReward(rwd reward.Reward) reward.Reward {
	if rwd.Quantity != nil {
		qty := *rwd.Quantity
		rwd.Quantity = &qty
	}
	return rwd
}

func copyRedemption(rdm reward.Redemption) reward.Redemption {
	if rdm.ResolvedAt != nil {
		at := *rdm.ResolvedAt
		rdm.ResolvedAt = &at
	}
	return rdm
}

func (repo *rewardRepository) QueryRewards(_ context.Context) ([]reward.Reward, error) {
	repo.rewards.RLock()
	defer repo.rewards.RUnlock()

	rewards := make([]reward.Reward, 0, len(repo.rewards.order))
	for _, id := range repo.rewards.order {
		rewards = append(rewards, copyReward(*repo.rewards.table[id]))
	}
	return rewards, nil
}

func (repo *rewardRepository) CreateRewards(_ context.Context, rewards ...reward.Reward) error {
	repo.rewards.Lock()
	defer repo.rewards.Unlock()

	for _, rwd := range rewards {
		rwd := copyReward(rwd)
		if _, ok := repo.rewards.table[rwd.ID]; !ok {
			repo.rewards.order = append(repo.rewards.order, rwd.ID)
		}
		repo.rewards.table[rwd.ID] = &rwd
	}
	return nil
}

func (repo *rewardRepository) GetReward(_ context.Context, id string) (reward.Reward, error) {
	repo.rewards.RLock()
	defer repo.rewards.RUnlock()

	if rwd, ok := repo.rewards.table[id]; ok {
		return copyReward(*rwd), nil
	}
	return reward.Reward{}, reward.ErrNotFound
}

func (repo *rewardRepository) UpdateReward(_ context.Context, rwd reward.Reward) (reward.Reward, error) {
	repo.rewards.Lock()
	defer repo.rewards.Unlock()

	if _, ok := repo.rewards.table[rwd.ID]; !ok {
		return reward.Reward{}, reward.ErrNotFound
	}
	stored := copyReward(rwd)
	repo.rewards.table[rwd.ID] = &stored
	return copyReward(stored), nil
}

func (repo *rewardRepository) CreateRedemption(_ context.Context, rdm reward.Redemption) (reward.Redemption, error) {
	repo.redemptions.Lock()
	defer repo.redemptions.Unlock()

	stored := copyRedemption(rdm)
	if _, ok := repo.redemptions.table[rdm.ID]; !ok {
		repo.redemptions.order = append(repo.redemptions.order, rdm.ID)
	}
	repo.redemptions.table[rdm.ID] = &stored
	return copyRedemption(stored), nil
}

func (repo *rewardRepository) GetRedemption(_ context.Context, id string) (reward.Redemption, error) {
	repo.redemptions.RLock()
	defer repo.redemptions.RUnlock()

	if rdm, ok := repo.redemptions.table[id]; ok {
		return copyRedemption(*rdm), nil
	}
	return reward.Redemption{}, reward.ErrNotFound
}

func (repo *rewardRepository) UpdateRedemption(_ context.Context, rdm reward.Redemption) (reward.Redemption, error) {
	repo.redemptions.Lock()
	defer repo.redemptions.Unlock()

	if _, ok := repo.redemptions.table[rdm.ID]; !ok {
		return reward.Redemption{}, reward.ErrNotFound
	}
	stored := copyRedemption(rdm)
	repo.redemptions.table[rdm.ID] = &stored
	return copyRedemption(stored), nil
}

func (repo *rewardRepository) FilterRedemptions(_ context.Context, filter reward.RedemptionFilter) ([]reward.Redemption, error) {
	repo.redemptions.RLock()
	defer repo.redemptions.RUnlock()

	rdms := make([]reward.Redemption, 0)
	for _, id := range repo.redemptions.order {
		rdm := repo.redemptions.table[id]
		if filter.StudentID != "" && rdm.StudentID != filter.StudentID {
			continue
		}
		if filter.Status != "" && rdm.Status != filter.Status {
			continue
		}
		rdms = append(rdms, copyRedemption(*rdm))
	}
	return rdms, nil
}
