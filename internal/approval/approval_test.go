package approval

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"vip-access-bot/internal/models"
	"vip-access-bot/internal/storage"
)

type allowList []int64

func (a allowList) IsAdmin(id int64) bool {
	for _, v := range a {
		if v == id {
			return true
		}
	}
	return false
}

type fakeMinter struct {
	minted int
}

func (f *fakeMinter) MintInviteLink(ctx context.Context, broker string) (string, error) {
	f.minted++
	return "https://t.me/+single-use", nil
}

func setup(t *testing.T, mode LinkMode) (*Service, *storage.Store, *fakeMinter) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Submission{}, &models.VIPLink{}, &models.Ban{}))

	store := storage.NewStore(db)
	minter := &fakeMinter{}
	svc := NewService(store, minter, allowList{100}, mode, zerolog.Nop())
	return svc, store, minter
}

func seedPending(t *testing.T, store *storage.Store) *models.Submission {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.UpsertUser(ctx, &models.User{TgUserID: 1}))
	sub := &models.Submission{TgUserID: 1, Broker: "Vantage", ClientID: "123456", Status: models.StatusPending}
	require.NoError(t, store.CreateSubmission(ctx, sub))
	return sub
}

func TestDecideUnauthorized(t *testing.T) {
	svc, store, _ := setup(t, LinkStatic)
	sub := seedPending(t, store)

	_, err := svc.Decide(context.Background(), 999, sub.ID, Approve)
	assert.ErrorIs(t, err, ErrUnauthorized)

	got, gerr := store.GetSubmission(context.Background(), sub.ID)
	require.NoError(t, gerr)
	assert.Equal(t, models.StatusPending, got.Status, "no mutation for unauthorized actors")
}

func TestDecideNotFound(t *testing.T) {
	svc, _, _ := setup(t, LinkStatic)
	_, err := svc.Decide(context.Background(), 100, 424242, Approve)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApproveUsesStaticLink(t *testing.T) {
	ctx := context.Background()
	svc, store, minter := setup(t, LinkStatic)
	sub := seedPending(t, store)
	require.NoError(t, store.SetVIPLink(ctx, "Vantage", "https://t.me/+static"))

	dec, err := svc.Decide(ctx, 100, sub.ID, Approve)
	require.NoError(t, err)
	assert.Equal(t, Approve, dec.Outcome)
	assert.Equal(t, "https://t.me/+static", dec.InviteLink)
	assert.Zero(t, minter.minted)

	got, err := store.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
}

func TestApproveMintsSingleUseLink(t *testing.T) {
	ctx := context.Background()
	svc, store, minter := setup(t, LinkSingleUse)
	sub := seedPending(t, store)

	dec, err := svc.Decide(ctx, 100, sub.ID, Approve)
	require.NoError(t, err)
	assert.Equal(t, "https://t.me/+single-use", dec.InviteLink)
	assert.Equal(t, 1, minter.minted)
}

func TestDoubleApprovalIsRefused(t *testing.T) {
	ctx := context.Background()
	svc, store, minter := setup(t, LinkSingleUse)
	sub := seedPending(t, store)

	_, err := svc.Decide(ctx, 100, sub.ID, Approve)
	require.NoError(t, err)

	_, err = svc.Decide(ctx, 100, sub.ID, Approve)
	assert.ErrorIs(t, err, ErrAlreadyDecided)
	assert.Equal(t, 1, minter.minted, "re-approval never issues a second invite")
}

func TestReject(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := setup(t, LinkStatic)
	sub := seedPending(t, store)

	dec, err := svc.Decide(ctx, 100, sub.ID, Reject)
	require.NoError(t, err)
	assert.Equal(t, Reject, dec.Outcome)
	assert.Empty(t, dec.InviteLink)

	got, err := store.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Status)
}

func TestApproveWithoutConfiguredLink(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := setup(t, LinkStatic)
	sub := seedPending(t, store)

	dec, err := svc.Decide(ctx, 100, sub.ID, Approve)
	require.NoError(t, err)
	assert.Empty(t, dec.InviteLink, "approval stands even when no link is configured")
	assert.False(t, errors.Is(err, ErrNotFound))
}
