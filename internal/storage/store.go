package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vip-access-bot/internal/models"
)

var (
	// ErrNotFound is returned by reads that miss.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable wraps storage-engine failures. Callers treat it as
	// fatal for the current operation; there are no automatic retries.
	ErrUnavailable = errors.New("store unavailable")
)

// Store owns all persisted entities. Every multi-statement logical operation
// commits as a single transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func wrap(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// --- users ---

// UpsertUser inserts the user or refreshes mutable profile fields on the
// natural key tg_user_id.
func (s *Store) UpsertUser(ctx context.Context, u *models.User) error {
	if u.JoinedAt.IsZero() {
		u.JoinedAt = time.Now().UTC()
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tg_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "first_name", "last_name"}),
	}).Create(u).Error
	if err != nil {
		return wrap(err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, tgUserID int64) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "tg_user_id = ?", tgUserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap(err)
	}
	return &u, nil
}

// ListRecipients returns the ids of every known, non-banned user.
func (s *Store) ListRecipients(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("tg_user_id NOT IN (?)", s.db.Model(&models.Ban{}).Select("tg_user_id")).
		Pluck("tg_user_id", &ids).Error
	if err != nil {
		return nil, wrap(err)
	}
	return ids, nil
}

// --- submissions ---

// CreateSubmission writes a new submission and stamps the user's cooldown in
// one transaction. Prior rows for the same (client_id, broker) pair are
// removed first, so resubmission after rejection starts clean.
func (s *Store) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("client_id = ? AND broker = ?", sub.ClientID, sub.Broker).
			Delete(&models.Submission{}).Error; err != nil {
			return err
		}
		if err := tx.Create(sub).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("tg_user_id = ?", sub.TgUserID).
			Update("last_submit_at", time.Now().UTC()).Error
	})
	if err != nil {
		return wrap(err)
	}
	return nil
}

func (s *Store) GetSubmission(ctx context.Context, id int64) (*models.Submission, error) {
	var sub models.Submission
	err := s.db.WithContext(ctx).First(&sub, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap(err)
	}
	return &sub, nil
}

func (s *Store) SetStatus(ctx context.Context, id int64, status models.SubmissionStatus) error {
	res := s.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetLastTradeDate(ctx context.Context, id int64, date string) error {
	err := s.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", id).
		Update("last_trade_date", date).Error
	if err != nil {
		return wrap(err)
	}
	return nil
}

// HasPending reports whether the user already has a pending submission for
// the broker. The check and any subsequent insert are separate operations;
// two near-simultaneous submissions can both pass it.
func (s *Store) HasPending(ctx context.Context, tgUserID int64, broker string) (bool, error) {
	return s.hasStatus(ctx, tgUserID, broker, models.StatusPending)
}

func (s *Store) HasApproved(ctx context.Context, tgUserID int64, broker string) (bool, error) {
	return s.hasStatus(ctx, tgUserID, broker, models.StatusApproved)
}

func (s *Store) hasStatus(ctx context.Context, tgUserID int64, broker string, status models.SubmissionStatus) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Submission{}).
		Where("tg_user_id = ? AND broker = ? AND status = ?", tgUserID, broker, status).
		Count(&count).Error
	if err != nil {
		return false, wrap(err)
	}
	return count > 0, nil
}

// HasAnyApproved reports whether the user holds at least one approved
// submission on any broker. Gates the AI mentor.
func (s *Store) HasAnyApproved(ctx context.Context, tgUserID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Submission{}).
		Where("tg_user_id = ? AND status = ?", tgUserID, models.StatusApproved).
		Count(&count).Error
	if err != nil {
		return false, wrap(err)
	}
	return count > 0, nil
}

func (s *Store) ListPending(ctx context.Context) ([]models.Submission, error) {
	var subs []models.Submission
	err := s.db.WithContext(ctx).
		Where("status = ?", models.StatusPending).
		Order("created_at ASC").
		Find(&subs).Error
	if err != nil {
		return nil, wrap(err)
	}
	return subs, nil
}

func (s *Store) ListApprovedByBroker(ctx context.Context, broker string) ([]models.Submission, error) {
	var subs []models.Submission
	err := s.db.WithContext(ctx).
		Where("broker = ? AND status = ?", broker, models.StatusApproved).
		Find(&subs).Error
	if err != nil {
		return nil, wrap(err)
	}
	return subs, nil
}

// Find matches submissions by client id or Telegram user id.
func (s *Store) Find(ctx context.Context, key string) ([]models.Submission, error) {
	var subs []models.Submission
	err := s.db.WithContext(ctx).
		Where("client_id = ? OR tg_user_id = ?", key, key).
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, wrap(err)
	}
	return subs, nil
}

// ListSubmissionsExport snapshots every submission, most recent first.
func (s *Store) ListSubmissionsExport(ctx context.Context) ([]models.Submission, error) {
	var subs []models.Submission
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&subs).Error
	if err != nil {
		return nil, wrap(err)
	}
	return subs, nil
}

// --- vip links ---

// SeedVIPLinks inserts an empty row for every supported broker, keeping
// existing links untouched.
func (s *Store) SeedVIPLinks(ctx context.Context, brokers []string) error {
	for _, b := range brokers {
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.VIPLink{Broker: b}).Error
		if err != nil {
			return wrap(err)
		}
	}
	return nil
}

func (s *Store) SetVIPLink(ctx context.Context, broker, link string) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "broker"}},
		DoUpdates: clause.AssignmentColumns([]string{"invite_link"}),
	}).Create(&models.VIPLink{Broker: broker, Link: link}).Error
	if err != nil {
		return wrap(err)
	}
	return nil
}

func (s *Store) GetVIPLink(ctx context.Context, broker string) (string, error) {
	var vl models.VIPLink
	err := s.db.WithContext(ctx).First(&vl, "broker = ?", broker).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", wrap(err)
	}
	return vl.Link, nil
}

// --- bans ---

func (s *Store) Ban(ctx context.Context, tgUserID int64, reason string) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Ban{TgUserID: tgUserID, BannedAt: time.Now().UTC(), Reason: reason}).Error
	if err != nil {
		return wrap(err)
	}
	return nil
}

func (s *Store) Unban(ctx context.Context, tgUserID int64) error {
	err := s.db.WithContext(ctx).Delete(&models.Ban{}, "tg_user_id = ?", tgUserID).Error
	if err != nil {
		return wrap(err)
	}
	return nil
}

func (s *Store) IsBanned(ctx context.Context, tgUserID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Ban{}).
		Where("tg_user_id = ?", tgUserID).
		Count(&count).Error
	if err != nil {
		return false, wrap(err)
	}
	return count > 0, nil
}

// --- stats ---

func (s *Store) Stats(ctx context.Context) (*models.Stats, error) {
	var st models.Stats
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&st.Users).Error; err != nil {
		return nil, wrap(err)
	}
	counts := []struct {
		status models.SubmissionStatus
		dst    *int64
	}{
		{models.StatusPending, &st.Pending},
		{models.StatusApproved, &st.Approved},
		{models.StatusRejected, &st.Rejected},
		{models.StatusKickedInactive, &st.KickedInactive},
	}
	for _, c := range counts {
		err := s.db.WithContext(ctx).Model(&models.Submission{}).
			Where("status = ?", c.status).
			Count(c.dst).Error
		if err != nil {
			return nil, wrap(err)
		}
	}
	return &st, nil
}
