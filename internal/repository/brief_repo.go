package repository

import (
	"context"

	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/domain"
	"gorm.io/gorm"
)

// BriefRepository handles research brief job records.
type BriefRepository struct {
	db *gorm.DB
}

// NewBriefRepository creates a new BriefRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *BriefRepository: repository instance bound to db.
func NewBriefRepository(db *gorm.DB) *BriefRepository {
	return &BriefRepository{db: db}
}

// Create inserts a new brief record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - brief: brief record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *BriefRepository) Create(ctx context.Context, brief *domain.Brief) error {
	return r.db.WithContext(ctx).Create(brief).Error
}

// GetByID retrieves a brief by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: brief ID.
// Returns:
//   - *domain.Brief: brief record if found.
//   - error: non-nil if lookup fails (gorm.ErrRecordNotFound when unknown).
func (r *BriefRepository) GetByID(ctx context.Context, id string) (*domain.Brief, error) {
	var brief domain.Brief
	if err := r.db.WithContext(ctx).First(&brief, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &brief, nil
}

// ListRecent retrieves the most recently created briefs.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of records to return.
// Returns:
//   - []domain.Brief: briefs ordered by creation time, newest first.
//   - error: non-nil if the query fails.
func (r *BriefRepository) ListRecent(ctx context.Context, limit int) ([]domain.Brief, error) {
	var briefs []domain.Brief
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&briefs).Error; err != nil {
		return nil, err
	}
	return briefs, nil
}

// MarkCompleted performs the terminal write for a successful run. The update
// is conditional on the record still being in the processing state, so a
// second terminal write for the same brief is a no-op.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: brief ID.
//   - result: validated research brief to store.
// Returns:
//   - bool: true if this call performed the transition.
//   - error: non-nil if the update fails.
func (r *BriefRepository) MarkCompleted(ctx context.Context, id string, result *domain.ResearchBrief) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.Brief{}).
		Where("id = ? AND status = ?", id, domain.BriefStatusProcessing).
		Updates(map[string]interface{}{
			"status": domain.BriefStatusCompleted,
			"result": result,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// MarkFailed performs the terminal write for a failed run, with the same
// only-from-processing guard as MarkCompleted.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: brief ID.
//   - reason: short human-readable failure summary.
// Returns:
//   - bool: true if this call performed the transition.
//   - error: non-nil if the update fails.
func (r *BriefRepository) MarkFailed(ctx context.Context, id string, reason string) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.Brief{}).
		Where("id = ? AND status = ?", id, domain.BriefStatusProcessing).
		Updates(map[string]interface{}{
			"status":       domain.BriefStatusFailed,
			"error_reason": reason,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// Ping verifies database connectivity for the health probe.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - error: non-nil if the database is unreachable.
func (r *BriefRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
