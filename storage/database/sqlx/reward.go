package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/edupoints/core/reward"
)

type (
	rewardRow struct {
		ID          string `db:"id"`
		Name        string `db:"name"`
		Description string `db:"description"`
		PointsCost  int    `db:"points_cost"`
		Limited     bool   `db:"limited"`
		Quantity    *int   `db:"quantity"`
		ImageURL    string `db:"image_url"`
	}

	redemptionRow struct {
		ID           string     `db:"id"`
		StudentID    string     `db:"student_id"`
		RewardID     string     `db:"reward_id"`
		RedeemedAt   time.Time  `db:"redeemed_at"`
		Status       string     `db:"status"`
		TeacherID    string     `db:"teacher_id"`
		ResolvedAt   *time.Time `db:"resolved_at"`
		StudentName  string     `db:"student_name"`
		StudentEmail string     `db:"student_email"`
	}
)

func (row rewardRow) toReward() reward.Reward {
	return reward.Reward{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		PointsCost:  row.PointsCost,
		Limited:     row.Limited,
		Quantity:    row.Quantity,
		ImageURL:    row.ImageURL,
	}
}

func (row redemptionRow) toRedemption() reward.Redemption {
	rdm := reward.Redemption{
		ID:           row.ID,
		StudentID:    row.StudentID,
		RewardID:     row.RewardID,
		RedeemedAt:   row.RedeemedAt.UTC(),
		Status:       reward.Status(row.Status),
		TeacherID:    row.TeacherID,
		StudentName:  row.StudentName,
		StudentEmail: row.StudentEmail,
	}
	if row.ResolvedAt != nil {
		at := row.ResolvedAt.UTC()
		rdm.ResolvedAt = &at
	}
	return rdm
}

const (
	rewardColumns     = `id, name, description, points_cost, limited, quantity, image_url`
	redemptionColumns = `id, student_id, reward_id, redeemed_at, status, teacher_id, resolved_at, student_name, student_email`
)

type rewardRepository struct {
	db *sqlx.DB
}

var _ reward.Repository = (*rewardRepository)(nil) // interface compliance check

// NewRewardRepository returns a reward.Repository backed by the reward and redemption tables.
func NewRewardRepository(db *sqlx.DB) reward.Repository {
	return &rewardRepository{db: db}
}

func (repo *rewardRepository) QueryRewards(ctx context.Context) ([]reward.Reward, error) {
	var rows []rewardRow
	q := `SELECT ` + rewardColumns + ` FROM reward ORDER BY position`
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting rewards")
	}

	rewards := make([]reward.Reward, len(rows))
	for i, row := range rows {
		rewards[i] = row.toReward()
	}
	return rewards, nil
}

func (repo *rewardRepository) CreateRewards(ctx context.Context, rewards ...reward.Reward) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}

	pos, err := lastPosition(ctx, tx, "reward")
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	q := tx.Rebind(`INSERT INTO reward (` + rewardColumns + `, position) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, rwd := range rewards {
		pos++
		if _, err = tx.ExecContext(ctx, q,
			rwd.ID, rwd.Name, rwd.Description, rwd.PointsCost, rwd.Limited, rwd.Quantity, rwd.ImageURL, pos,
		); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "inserting reward %q", rwd.ID)
		}
	}
	return errors.Wrap(tx.Commit(), "committing rewards")
}

func (repo *rewardRepository) GetReward(ctx context.Context, id string) (reward.Reward, error) {
	var row rewardRow
	q := repo.db.Rebind(`SELECT ` + rewardColumns + ` FROM reward WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return reward.Reward{}, reward.ErrNotFound
		}
		return reward.Reward{}, errors.Wrap(err, "selecting reward")
	}
	return row.toReward(), nil
}

func (repo *rewardRepository) UpdateReward(ctx context.Context, rwd reward.Reward) (reward.Reward, error) {
	q := repo.db.Rebind(`UPDATE reward
SET name = ?, description = ?, points_cost = ?, limited = ?, quantity = ?, image_url = ?
WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q,
		rwd.Name, rwd.Description, rwd.PointsCost, rwd.Limited, rwd.Quantity, rwd.ImageURL, rwd.ID,
	)
	if err != nil {
		return reward.Reward{}, errors.Wrap(err, "updating reward")
	}
	if err = checkAffected(res); err != nil {
		return reward.Reward{}, err
	}
	return rwd, nil
}

func (repo *rewardRepository) CreateRedemption(ctx context.Context, rdm reward.Redemption) (reward.Redemption, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return reward.Redemption{}, errors.Wrap(err, "beginning transaction")
	}

	pos, err := lastPosition(ctx, tx, "redemption")
	if err != nil {
		_ = tx.Rollback()
		return reward.Redemption{}, err
	}
	q := tx.Rebind(`INSERT INTO redemption (` + redemptionColumns + `, position) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err = tx.ExecContext(ctx, q,
		rdm.ID, rdm.StudentID, rdm.RewardID, rdm.RedeemedAt.UTC(), string(rdm.Status),
		rdm.TeacherID, rdm.ResolvedAt, rdm.StudentName, rdm.StudentEmail, pos+1,
	); err != nil {
		_ = tx.Rollback()
		return reward.Redemption{}, errors.Wrap(err, "inserting redemption")
	}
	return rdm, errors.Wrap(tx.Commit(), "committing redemption")
}

func (repo *rewardRepository) GetRedemption(ctx context.Context, id string) (reward.Redemption, error) {
	var row redemptionRow
	q := repo.db.Rebind(`SELECT ` + redemptionColumns + ` FROM redemption WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return reward.Redemption{}, reward.ErrNotFound
		}
		return reward.Redemption{}, errors.Wrap(err, "selecting redemption")
	}
	return row.toRedemption(), nil
}

func (repo *rewardRepository) UpdateRedemption(ctx context.Context, rdm reward.Redemption) (reward.Redemption, error) {
	q := repo.db.Rebind(`UPDATE redemption
SET status = ?, teacher_id = ?, resolved_at = ?
WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q, string(rdm.Status), rdm.TeacherID, rdm.ResolvedAt, rdm.ID)
	if err != nil {
		return reward.Redemption{}, errors.Wrap(err, "updating redemption")
	}
	if err = checkAffected(res); err != nil {
		return reward.Redemption{}, err
	}
	return rdm, nil
}

func (repo *rewardRepository) FilterRedemptions(ctx context.Context, filter reward.RedemptionFilter) ([]reward.Redemption, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.StudentID != "" {
		conds = append(conds, "student_id = ?")
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}

	q := `SELECT ` + redemptionColumns + ` FROM redemption`
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY position`

	var rows []redemptionRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting redemptions")
	}

	rdms := make([]reward.Redemption, len(rows))
	for i, row := range rows {
		rdms[i] = row.toRedemption()
	}
	return rdms, nil
}

// lastPosition returns the highest insertion position of table, 0 when empty.
func lastPosition(ctx context.Context, tx *sqlx.Tx, table string) (int, error) {
	var pos int
	if err := tx.GetContext(ctx, &pos, `SELECT COALESCE(MAX(position), 0) FROM `+table); err != nil {
		return 0, errors.Wrapf(err, "selecting last %s position", table)
	}
	return pos, nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return reward.ErrNotFound
	}
	return nil
}
