package reward_test

import (
	"context"
	"net/mail"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edupoints/core"
	"github.com/trezcool/edupoints/core/mockgen"
	"github.com/trezcool/edupoints/core/reward"
	"github.com/trezcool/edupoints/core/user"
	inmemdb "github.com/trezcool/edupoints/storage/database/inmem"
)

type mailRecorder struct {
	mu   sync.Mutex
	msgs []core.EmailMessage
}

func (m *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range messages {
		m.msgs = append(m.msgs, *msg)
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func setup(t *testing.T, rewards ...reward.Reward) (*reward.Service, reward.Repository, *mailRecorder) {
	t.Helper()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	reward.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { reward.NowFunc = time.Now })

	repo := inmemdb.NewRewardRepository(inmemdb.Open())
	if len(rewards) > 0 {
		require.NoError(t, repo.CreateRewards(context.Background(), rewards...))
	}
	mailer := new(mailRecorder)
	return reward.NewService(repo, mockgen.NewSeeded(42), mailer, nopLogger{}), repo, mailer
}

func intp(i int) *int { return &i }

func newStudent(points int) user.Student {
	return user.Student{
		User:        user.User{ID: "student-1", Name: "Student Doe", Email: "s@b.com", Role: user.RoleStudent},
		TotalPoints: points,
	}
}

var teacher = user.Teacher{User: user.User{ID: "teacher-1", Name: "Professor Smith", Role: user.RoleTeacher}}

func TestService_Catalog(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := setup(t)

	rewards, err := svc.Catalog(ctx)
	require.NoError(t, err)
	assert.Len(t, rewards, reward.CatalogSize)

	stored, err := repo.QueryRewards(ctx)
	require.NoError(t, err)
	assert.Equal(t, rewards, stored)

	again, err := svc.Catalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, rewards, again)
}

func TestService_Redeem(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := setup(t,
		reward.Reward{ID: "r-ext", Name: "Homework Extension", PointsCost: 40},
		reward.Reward{ID: "r-mentor", Name: "Mentorship Session", PointsCost: 100, Limited: true, Quantity: intp(1)},
		reward.Reward{ID: "r-gone", Name: "Project Guidance", PointsCost: 75, Limited: true, Quantity: intp(0)},
	)

	tests := []struct {
		name     string
		points   int
		rewardID string
		wantErr  error
	}{
		{name: "unknown reward", points: 500, rewardID: "nope", wantErr: reward.ErrNotFound},
		{name: "not enough points", points: 39, rewardID: "r-ext", wantErr: reward.ErrInsufficientPoints},
		{name: "out of stock", points: 500, rewardID: "r-gone", wantErr: reward.ErrOutOfStock},
		{name: "exact points", points: 40, rewardID: "r-ext"},
		{name: "unlimited again", points: 40, rewardID: "r-ext"},
		{name: "last one", points: 100, rewardID: "r-mentor"},
		{name: "sold out", points: 100, rewardID: "r-mentor", wantErr: reward.ErrOutOfStock},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rdm, err := svc.Redeem(ctx, newStudent(tc.points), tc.rewardID)
			if tc.wantErr != nil {
				require.Error(t, err)
				cause := errors.Cause(err)
				if vErr, ok := cause.(*core.ValidationError); ok {
					cause = vErr.Err
				}
				assert.Equal(t, tc.wantErr, cause)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, rdm.ID)
			assert.Equal(t, "student-1", rdm.StudentID)
			assert.Equal(t, tc.rewardID, rdm.RewardID)
			assert.Equal(t, reward.StatusPending, rdm.Status)
			assert.Equal(t, reward.NowFunc(), rdm.RedeemedAt)
		})
	}

	mentor, err := repo.GetReward(ctx, "r-mentor")
	require.NoError(t, err)
	assert.Equal(t, 0, *mentor.Quantity)
	ext, err := repo.GetReward(ctx, "r-ext")
	require.NoError(t, err)
	assert.Nil(t, ext.Quantity)

	rdms, err := svc.ByStudent(ctx, "student-1")
	require.NoError(t, err)
	assert.Len(t, rdms, 3)
}

type failingRepo struct {
	reward.Repository
}

func (failingRepo) CreateRedemption(context.Context, reward.Redemption) (reward.Redemption, error) {
	return reward.Redemption{}, errors.New("disk full")
}

func TestService_Redeem_restoresStock(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewRewardRepository(inmemdb.Open())
	require.NoError(t, repo.CreateRewards(ctx,
		reward.Reward{ID: "r-mentor", Name: "Mentorship Session", PointsCost: 100, Limited: true, Quantity: intp(1)}))
	svc := reward.NewService(failingRepo{repo}, mockgen.NewSeeded(42), new(mailRecorder), nopLogger{})

	_, err := svc.Redeem(ctx, newStudent(100), "r-mentor")
	require.Error(t, err)
	assert.Equal(t, "disk full", errors.Cause(err).Error())

	rwd, err := repo.GetReward(ctx, "r-mentor")
	require.NoError(t, err)
	require.NotNil(t, rwd.Quantity)
	assert.Equal(t, 1, *rwd.Quantity)

	rdms, err := repo.FilterRedemptions(ctx, reward.RedemptionFilter{StudentID: "student-1"})
	require.NoError(t, err)
	assert.Empty(t, rdms)
}

func TestService_resolve(t *testing.T) {
	ctx := context.Background()
	svc, _, mailer := setup(t, reward.Reward{ID: "r-ext", Name: "Homework Extension", PointsCost: 40})

	first, err := svc.Redeem(ctx, newStudent(100), "r-ext")
	require.NoError(t, err)
	second, err := svc.Redeem(ctx, newStudent(100), "r-ext")
	require.NoError(t, err)

	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)

	approved, err := svc.Approve(ctx, teacher, first.ID)
	require.NoError(t, err)
	assert.Equal(t, reward.StatusApproved, approved.Status)
	assert.Equal(t, "teacher-1", approved.TeacherID)
	require.NotNil(t, approved.ResolvedAt)

	rejected, err := svc.Reject(ctx, teacher, second.ID)
	require.NoError(t, err)
	assert.Equal(t, reward.StatusRejected, rejected.Status)

	// never reverts
	_, err = svc.Reject(ctx, teacher, first.ID)
	require.Error(t, err)
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok)
	assert.Equal(t, reward.ErrAlreadyResolved, vErr.Err)

	_, err = svc.Approve(ctx, teacher, "nope")
	assert.Equal(t, reward.ErrNotFound, errors.Cause(err))

	pending, err = svc.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	byStatus, err := svc.ByStatus(ctx, reward.StatusApproved)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, first.ID, byStatus[0].ID)

	items, err := svc.Items(ctx, byStatus)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Homework Extension", items[0].Reward.Name)

	require.Len(t, mailer.msgs, 2)
	assert.Equal(t, []mail.Address{{Name: "Student Doe", Address: "s@b.com"}}, mailer.msgs[0].To)
	assert.Equal(t, `Reward "Homework Extension" has been approved`, mailer.msgs[0].Subject)
	assert.Equal(t, `Reward "Homework Extension" has been rejected`, mailer.msgs[1].Subject)
}

func TestService_Items_skipsMissingRewards(t *testing.T) {
	svc, _, _ := setup(t)
	items, err := svc.Items(context.Background(), []reward.Redemption{{ID: "a", RewardID: "gone"}})
	require.NoError(t, err)
	assert.Empty(t, items)
}
