package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"vip-access-bot/internal/models"
	"vip-access-bot/internal/storage"
)

type fakeActivity struct {
	data map[string]time.Time
}

func (f *fakeActivity) TradeActivity(ctx context.Context) map[string]time.Time {
	if f.data == nil {
		return map[string]time.Time{}
	}
	return f.data
}

type fakeKicker struct {
	kicked   []int64
	notified []int64
	failFor  map[int64]bool
}

func (f *fakeKicker) KickFromChannel(ctx context.Context, id int64) error {
	if f.failFor[id] {
		return errors.New("telegram says no")
	}
	f.kicked = append(f.kicked, id)
	return nil
}

func (f *fakeKicker) NotifyKicked(id int64, days int) {
	f.notified = append(f.notified, id)
}

type harness struct {
	svc      *Service
	store    *storage.Store
	activity *fakeActivity
	kicker   *fakeKicker
	today    time.Time
}

func setup(t *testing.T) *harness {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Submission{}, &models.VIPLink{}, &models.Ban{}))

	h := &harness{
		store:    storage.NewStore(db),
		activity: &fakeActivity{},
		kicker:   &fakeKicker{failFor: map[int64]bool{}},
		today:    time.Date(2025, 6, 21, 12, 0, 0, 0, time.UTC),
	}
	h.svc = NewService(h.store, h.activity, h.kicker, 15, zerolog.Nop())
	h.svc.today = func() time.Time { return h.today }
	return h
}

func (h *harness) seedApproved(t *testing.T, userID int64, clientID, lastTrade string) *models.Submission {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.store.UpsertUser(ctx, &models.User{TgUserID: userID}))
	sub := &models.Submission{
		TgUserID: userID, Broker: "Vantage", ClientID: clientID,
		Status: models.StatusApproved, LastTradeDate: lastTrade,
	}
	require.NoError(t, h.store.CreateSubmission(ctx, sub))
	return sub
}

func TestNoTradeDateNeverRevokes(t *testing.T) {
	h := setup(t)
	h.seedApproved(t, 1, "123456", "")

	h.svc.Run(context.Background())

	assert.Empty(t, h.kicker.kicked, "absence of data is not inactivity")
	assert.Empty(t, h.kicker.notified)
}

func TestStoredDateBeyondWindowKicks(t *testing.T) {
	h := setup(t)
	// 20 days before the fixed today; the activity feed knows nothing.
	sub := h.seedApproved(t, 1, "123456", "2025-06-01")

	h.svc.Run(context.Background())

	assert.Equal(t, []int64{1}, h.kicker.kicked)
	assert.Equal(t, []int64{1}, h.kicker.notified, "exactly one kick notification")

	got, err := h.store.GetSubmission(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusKickedInactive, got.Status)
}

func TestStrictGreaterThanBoundary(t *testing.T) {
	h := setup(t)
	// Exactly 15 days ago: not kicked (strict greater-than).
	h.seedApproved(t, 1, "123456", "2025-06-06")
	// 16 days ago: kicked.
	h.seedApproved(t, 2, "654321", "2025-06-05")

	h.svc.Run(context.Background())

	assert.Equal(t, []int64{2}, h.kicker.kicked)
}

func TestFeedDateRefreshesAndSpares(t *testing.T) {
	h := setup(t)
	// Stored date is stale, but the feed shows a recent trade.
	sub := h.seedApproved(t, 1, "123456", "2025-05-01")
	h.activity.data = map[string]time.Time{
		"123456": time.Date(2025, 6, 20, 9, 30, 0, 0, time.UTC),
	}

	h.svc.Run(context.Background())

	assert.Empty(t, h.kicker.kicked)

	got, err := h.store.GetSubmission(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-20", got.LastTradeDate, "feed date persisted")
}

func TestLateDayFeedTimestampStillCountsCalendarDays(t *testing.T) {
	h := setup(t)
	// 16 calendar days ago, but at a time of day later than the sweep's
	// (today is noon). Raw subtraction would truncate to 15 days and spare
	// the user for another cycle.
	h.seedApproved(t, 1, "123456", "")
	h.activity.data = map[string]time.Time{
		"123456": time.Date(2025, 6, 5, 20, 0, 0, 0, time.UTC),
	}

	h.svc.Run(context.Background())

	assert.Equal(t, []int64{1}, h.kicker.kicked)
}

func TestOneFailureDoesNotAbortTheSweep(t *testing.T) {
	h := setup(t)
	sub1 := h.seedApproved(t, 1, "111111", "2025-05-01")
	sub2 := h.seedApproved(t, 2, "222222", "2025-05-01")
	h.kicker.failFor[1] = true

	h.svc.Run(context.Background())

	assert.Equal(t, []int64{2}, h.kicker.kicked)

	got1, err := h.store.GetSubmission(context.Background(), sub1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got1.Status, "failed kick leaves the submission untouched")

	got2, err := h.store.GetSubmission(context.Background(), sub2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusKickedInactive, got2.Status)
}

func TestOnlyTradeActivityBrokersAreSwept(t *testing.T) {
	h := setup(t)
	ctx := context.Background()
	require.NoError(t, h.store.UpsertUser(ctx, &models.User{TgUserID: 5}))
	// XM has no trade-activity feed; even an ancient date must not kick.
	require.NoError(t, h.store.CreateSubmission(ctx, &models.Submission{
		TgUserID: 5, Broker: "XM", ClientID: "999999",
		Status: models.StatusApproved, LastTradeDate: "2024-01-01",
	}))

	h.svc.Run(ctx)

	assert.Empty(t, h.kicker.kicked)
}
