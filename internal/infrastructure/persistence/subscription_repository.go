package persistence

import (
	"context"
	"time"

	"github.com/gateway/backend/internal/domain/billing"
	"github.com/gateway/backend/internal/domain/shared"
	"github.com/gateway/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSubscriptionRepository implements billing.SubscriptionRepository using GORM
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository creates a new GormSubscriptionRepository
func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// Create inserts a subscription. The unique user_id index reports a second subscription.
func (r *GormSubscriptionRepository) Create(ctx context.Context, sub *billing.Subscription) error {
	model := models.SubscriptionModelFromDomain(sub)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	sub.ID = model.ID
	return nil
}

// Update re-assigns the plan. The usage column is only written by IncrementUsage.
func (r *GormSubscriptionRepository) Update(ctx context.Context, sub *billing.Subscription) error {
	result := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Where("user_id = ?", sub.UserID).
		Updates(map[string]any{
			"plan_id":    sub.PlanID,
			"updated_at": sub.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByUserID removes a user's subscription
func (r *GormSubscriptionRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	result := r.db.WithContext(ctx).Delete(&models.SubscriptionModel{}, "user_id = ?", userID)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByUserID finds the subscription of a user
func (r *GormSubscriptionRepository) FindByUserID(ctx context.Context, userID int64) (*billing.Subscription, error) {
	var model models.SubscriptionModel
	if err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of subscriptions and the total count
func (r *GormSubscriptionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.Subscription, int64, error) {
	filter = filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.SubscriptionModel{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var rows []models.SubscriptionModel
	if err := query.
		Order(orderClause(filter, SubscriptionSortFields)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}

	subs := make([]billing.Subscription, len(rows))
	for i := range rows {
		subs[i] = *rows[i].ToDomain()
	}
	return subs, total, nil
}

// CountByPlan returns the number of subscriptions on a plan
func (r *GormSubscriptionRepository) CountByPlan(ctx context.Context, planID int64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Where("plan_id = ?", planID).
		Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// IncrementUsage consumes one unit of quota with a single conditional UPDATE:
//
//	UPDATE subscriptions SET usage = usage + 1 WHERE user_id = ? AND usage < ?
//
// The limit guard is omitted when limit is 0 (unlimited). Because the check and
// the write are one statement, concurrent callers can never push usage past the
// limit. The statement runs in its own (nested) transaction so a contention
// failure rolls back to a savepoint and leaves an enclosing transaction usable
// for a retry.
func (r *GormSubscriptionRepository) IncrementUsage(ctx context.Context, userID, limit int64) (int64, error) {
	var usage int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		update := tx.Model(&models.SubscriptionModel{}).Where("user_id = ?", userID)
		if limit > 0 {
			update = update.Where("usage < ?", limit)
		}
		result := update.Updates(map[string]any{
			"usage":      gorm.Expr("usage + 1"),
			"updated_at": time.Now(),
		})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.SubscriptionModel{}).
				Where("user_id = ?", userID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return shared.ErrNotFound
			}
			return shared.ErrQuotaExceeded
		}

		return tx.Model(&models.SubscriptionModel{}).
			Select("usage").
			Where("user_id = ?", userID).
			Scan(&usage).Error
	})
	if err != nil {
		return 0, translateError(err)
	}
	return usage, nil
}

var _ billing.SubscriptionRepository = (*GormSubscriptionRepository)(nil)
