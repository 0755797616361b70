/**
 * @description
 * Ingestion mirror: copies swap and failed-swap rows from the read-only
 * source ledger into the destination row store and time-bucketed store.
 * De-duplicates by UUID so re-running over the same window is a no-op;
 * a single row's failure is logged and skipped, never aborting the batch.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/jackc/pgx/v5/pgconn: unique-violation classification
 * - github.com/google/uuid: source row validation
 * - backend/internal/models
 */

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dexstats-project/backend/internal/logger"
	"github.com/dexstats-project/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SourceLedger is the external source-of-truth store, read-only.
type SourceLedger interface {
	FetchSwapsSince(ctx context.Context, epoch int64) ([]models.SourceSwap, error)
	FetchFailedSwapsSince(ctx context.Context, epoch int64) ([]models.SourceFailedSwap, error)
}

// SwapStore is the destination side of the mirror. InsertSwap and
// InsertFailedSwap write one record into both the row store and the
// time-bucketed store; duplicates are silently absorbed.
type SwapStore interface {
	ExistingSwapUUIDs(ctx context.Context, sinceEpoch int64) (map[string]bool, error)
	ExistingFailedSwapUUIDs(ctx context.Context, sinceEpoch int64) (map[string]bool, error)
	InsertSwap(ctx context.Context, row models.SwapRecord, bucket models.TimelineSwap) error
	InsertFailedSwap(ctx context.Context, row models.FailedSwapRecord, bucket models.TimelineFailedSwap) error
}

// MirrorResult reports how many rows a pass imported. A run of zeros
// across many passes is the stall signal for ops.
type MirrorResult struct {
	SwapsImported       int
	FailedSwapsImported int
}

type MirrorService struct {
	Source SourceLedger
	Store  SwapStore
}

func NewMirrorService(source SourceLedger, store SwapStore) *MirrorService {
	return &MirrorService{Source: source, Store: store}
}

// Mirror copies all source rows whose start time falls inside the
// lookback window. The window is wider than the refresh interval on
// purpose, to absorb late-arriving and clock-skewed rows.
func (s *MirrorService) Mirror(ctx context.Context, lookbackDays int) (MirrorResult, error) {
	var result MirrorResult
	since := daysAgo(lookbackDays)

	swaps, err := s.Source.FetchSwapsSince(ctx, since)
	if err != nil {
		return result, fmt.Errorf("failed to fetch source swaps: %w", err)
	}
	existing, err := s.Store.ExistingSwapUUIDs(ctx, since)
	if err != nil {
		return result, fmt.Errorf("failed to load destination swap uuids: %w", err)
	}
	for _, src := range swaps {
		if !validUUID(src.UUID) {
			logger.Warning("Skipping source swap with invalid uuid %q", src.UUID)
			continue
		}
		if existing[src.UUID] {
			continue
		}
		row, bucket := convertSwap(src)
		if err := s.Store.InsertSwap(ctx, row, bucket); err != nil {
			logger.Error("Failed to mirror swap %s: %v", src.UUID, err)
			continue
		}
		result.SwapsImported++
	}

	failed, err := s.Source.FetchFailedSwapsSince(ctx, since)
	if err != nil {
		return result, fmt.Errorf("failed to fetch source failed swaps: %w", err)
	}
	existingFailed, err := s.Store.ExistingFailedSwapUUIDs(ctx, since)
	if err != nil {
		return result, fmt.Errorf("failed to load destination failed swap uuids: %w", err)
	}
	for _, src := range failed {
		if !validUUID(src.UUID) {
			logger.Warning("Skipping source failed swap with invalid uuid %q", src.UUID)
			continue
		}
		if existingFailed[src.UUID] {
			continue
		}
		row, bucket := convertFailedSwap(src)
		if err := s.Store.InsertFailedSwap(ctx, row, bucket); err != nil {
			logger.Error("Failed to mirror failed swap %s: %v", src.UUID, err)
			continue
		}
		result.FailedSwapsImported++
	}

	logger.Info("Mirror pass complete: %d swaps, %d failed swaps imported", result.SwapsImported, result.FailedSwapsImported)
	return result, nil
}

func convertSwap(src models.SourceSwap) (models.SwapRecord, models.TimelineSwap) {
	epoch := src.StartedAt.UTC().Unix()
	row := models.SwapRecord{
		UUID:         src.UUID,
		MakerCoin:    src.MakerCoin,
		MakerAmount:  src.MakerAmount,
		TakerCoin:    src.TakerCoin,
		TakerAmount:  src.TakerAmount,
		StartedAt:    epoch,
		IsSuccess:    true,
		MakerGui:     src.MakerGui,
		MakerVersion: src.MakerVersion,
		MakerPubkey:  src.MakerPubkey,
		TakerGui:     src.TakerGui,
		TakerVersion: src.TakerVersion,
		TakerPubkey:  src.TakerPubkey,
	}
	bucket := models.TimelineSwap{
		UUID:         src.UUID,
		MakerCoin:    src.MakerCoin,
		MakerAmount:  src.MakerAmount,
		TakerCoin:    src.TakerCoin,
		TakerAmount:  src.TakerAmount,
		StartedAt:    src.StartedAt.UTC(),
		Epoch:        epoch,
		MakerGui:     src.MakerGui,
		MakerVersion: src.MakerVersion,
		MakerPubkey:  src.MakerPubkey,
		TakerGui:     src.TakerGui,
		TakerVersion: src.TakerVersion,
		TakerPubkey:  src.TakerPubkey,
	}
	return row, bucket
}

func convertFailedSwap(src models.SourceFailedSwap) (models.FailedSwapRecord, models.TimelineFailedSwap) {
	epoch := src.StartedAt.UTC().Unix()
	makerMsg := models.SanitizeErrorMsg(src.MakerErrorMsg)
	takerMsg := models.SanitizeErrorMsg(src.TakerErrorMsg)
	row := models.FailedSwapRecord{
		UUID:               src.UUID,
		MakerCoin:          src.MakerCoin,
		MakerAmount:        src.MakerAmount,
		TakerCoin:          src.TakerCoin,
		TakerAmount:        src.TakerAmount,
		StartedAt:          epoch,
		MakerGui:           src.MakerGui,
		MakerVersion:       src.MakerVersion,
		MakerPubkey:        src.MakerPubkey,
		TakerGui:           src.TakerGui,
		TakerVersion:       src.TakerVersion,
		TakerPubkey:        src.TakerPubkey,
		MakerErrorType:     src.MakerErrorType,
		MakerErrorMsg:      makerMsg,
		MakerErrorCategory: models.ClassifyError(makerMsg),
		TakerErrorType:     src.TakerErrorType,
		TakerErrorMsg:      takerMsg,
		TakerErrorCategory: models.ClassifyError(takerMsg),
	}
	bucket := models.TimelineFailedSwap{
		UUID:               src.UUID,
		MakerCoin:          src.MakerCoin,
		MakerAmount:        src.MakerAmount,
		TakerCoin:          src.TakerCoin,
		TakerAmount:        src.TakerAmount,
		StartedAt:          src.StartedAt.UTC(),
		Epoch:              epoch,
		MakerGui:           src.MakerGui,
		MakerVersion:       src.MakerVersion,
		MakerPubkey:        src.MakerPubkey,
		TakerGui:           src.TakerGui,
		TakerVersion:       src.TakerVersion,
		TakerPubkey:        src.TakerPubkey,
		MakerErrorType:     src.MakerErrorType,
		MakerErrorMsg:      makerMsg,
		MakerErrorCategory: row.MakerErrorCategory,
		TakerErrorType:     src.TakerErrorType,
		TakerErrorMsg:      takerMsg,
		TakerErrorCategory: row.TakerErrorCategory,
	}
	return row, bucket
}

func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// GormSourceLedger reads the source ledger over a dedicated (read-only)
// connection.
type GormSourceLedger struct {
	DB *gorm.DB
}

func NewGormSourceLedger(db *gorm.DB) *GormSourceLedger {
	return &GormSourceLedger{DB: db}
}

func (l *GormSourceLedger) FetchSwapsSince(ctx context.Context, epoch int64) ([]models.SourceSwap, error) {
	var rows []models.SourceSwap
	err := l.DB.WithContext(ctx).
		Where("started_at > ?", time.Unix(epoch, 0).UTC()).
		Find(&rows).Error
	return rows, err
}

func (l *GormSourceLedger) FetchFailedSwapsSince(ctx context.Context, epoch int64) ([]models.SourceFailedSwap, error) {
	var rows []models.SourceFailedSwap
	err := l.DB.WithContext(ctx).
		Where("started_at > ?", time.Unix(epoch, 0).UTC()).
		Find(&rows).Error
	return rows, err
}

// GormSwapStore is the Postgres destination. Inserts rely on the UUID
// unique indexes plus ON CONFLICT DO NOTHING, so a concurrent or
// re-entrant mirror pass can never duplicate a row.
type GormSwapStore struct {
	DB *gorm.DB
}

func NewGormSwapStore(db *gorm.DB) *GormSwapStore {
	return &GormSwapStore{DB: db}
}

func (s *GormSwapStore) ExistingSwapUUIDs(ctx context.Context, sinceEpoch int64) (map[string]bool, error) {
	return s.existingUUIDs(ctx, &models.SwapRecord{}, sinceEpoch)
}

func (s *GormSwapStore) ExistingFailedSwapUUIDs(ctx context.Context, sinceEpoch int64) (map[string]bool, error) {
	return s.existingUUIDs(ctx, &models.FailedSwapRecord{}, sinceEpoch)
}

func (s *GormSwapStore) existingUUIDs(ctx context.Context, model interface{}, sinceEpoch int64) (map[string]bool, error) {
	var uuids []string
	err := s.DB.WithContext(ctx).
		Model(model).
		Where("started_at > ?", sinceEpoch).
		Pluck("uuid", &uuids).Error
	if err != nil {
		return nil, err
	}
	existing := make(map[string]bool, len(uuids))
	for _, id := range uuids {
		existing[id] = true
	}
	return existing, nil
}

func (s *GormSwapStore) InsertSwap(ctx context.Context, row models.SwapRecord, bucket models.TimelineSwap) error {
	if err := s.insert(ctx, &row); err != nil {
		return fmt.Errorf("row store: %w", err)
	}
	if err := s.insert(ctx, &bucket); err != nil {
		return fmt.Errorf("time-bucketed store: %w", err)
	}
	return nil
}

func (s *GormSwapStore) InsertFailedSwap(ctx context.Context, row models.FailedSwapRecord, bucket models.TimelineFailedSwap) error {
	if err := s.insert(ctx, &row); err != nil {
		return fmt.Errorf("row store: %w", err)
	}
	if err := s.insert(ctx, &bucket); err != nil {
		return fmt.Errorf("time-bucketed store: %w", err)
	}
	return nil
}

func (s *GormSwapStore) insert(ctx context.Context, record interface{}) error {
	err := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(record).Error
	if err != nil && isUniqueViolation(err) {
		// another pass landed the row first, which is fine
		return nil
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// daysAgo returns the epoch seconds of N days before now.
func daysAgo(days int) int64 {
	return time.Now().Add(-time.Duration(days) * 24 * time.Hour).Unix()
}
