package billing

import (
	"context"
	"errors"

	"github.com/gateway/backend/internal/domain/billing"
	"github.com/gateway/backend/internal/domain/catalog"
	"github.com/gateway/backend/internal/domain/identity"
	"github.com/gateway/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SubscriptionService manages which plan each user is on
type SubscriptionService struct {
	subRepo  billing.SubscriptionRepository
	planRepo catalog.PlanRepository
	userRepo identity.UserRepository
	logger   *zap.Logger
}

// NewSubscriptionService creates a new SubscriptionService
func NewSubscriptionService(
	subRepo billing.SubscriptionRepository,
	planRepo catalog.PlanRepository,
	userRepo identity.UserRepository,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		subRepo:  subRepo,
		planRepo: planRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// Subscribe creates the single subscription a user may hold
func (s *SubscriptionService) Subscribe(ctx context.Context, input CreateSubscriptionInput) (*SubscriptionDTO, error) {
	sub, err := billing.NewSubscription(input.UserID, input.PlanID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUser(ctx, input.UserID); err != nil {
		return nil, err
	}
	if err := s.ensurePlan(ctx, input.PlanID); err != nil {
		return nil, err
	}

	if err := s.subRepo.Create(ctx, sub); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError(shared.CodeAlreadyExists, "User already has a subscription")
		}
		s.logger.Error("Failed to create subscription", zap.Int64("user_id", input.UserID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Subscription created",
		zap.Int64("user_id", sub.UserID),
		zap.Int64("plan_id", sub.PlanID))

	dto := ToSubscriptionDTO(sub)
	return &dto, nil
}

// ChangePlan moves a user to another plan, keeping the usage counter
func (s *SubscriptionService) ChangePlan(ctx context.Context, userID, planID int64) (*SubscriptionDTO, error) {
	sub, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.ensurePlan(ctx, planID); err != nil {
		return nil, err
	}
	previous := sub.PlanID
	if err := sub.ChangePlan(planID); err != nil {
		return nil, err
	}
	if err := s.subRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info("Subscription plan changed",
		zap.Int64("user_id", userID),
		zap.Int64("from_plan_id", previous),
		zap.Int64("to_plan_id", planID))

	dto := ToSubscriptionDTO(sub)
	return &dto, nil
}

// Get returns a user's subscription
func (s *SubscriptionService) Get(ctx context.Context, userID int64) (*SubscriptionDTO, error) {
	sub, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := ToSubscriptionDTO(sub)
	return &dto, nil
}

// List returns subscriptions page by page
func (s *SubscriptionService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[SubscriptionDTO], error) {
	filter = filter.Normalize()
	subs, total, err := s.subRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]SubscriptionDTO, 0, len(subs))
	for i := range subs {
		items = append(items, ToSubscriptionDTO(&subs[i]))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Unsubscribe removes a user's subscription
func (s *SubscriptionService) Unsubscribe(ctx context.Context, userID int64) error {
	if err := s.subRepo.DeleteByUserID(ctx, userID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError(shared.CodeNotFound, "Subscription not found")
		}
		return err
	}
	s.logger.Info("Subscription removed", zap.Int64("user_id", userID))
	return nil
}

func (s *SubscriptionService) find(ctx context.Context, userID int64) (*billing.Subscription, error) {
	sub, err := s.subRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Subscription not found")
		}
		return nil, err
	}
	return sub, nil
}

func (s *SubscriptionService) ensurePlan(ctx context.Context, planID int64) error {
	if _, err := s.planRepo.FindByID(ctx, planID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError(shared.CodeNotFound, "Plan not found")
		}
		return err
	}
	return nil
}

func (s *SubscriptionService) ensureUser(ctx context.Context, userID int64) error {
	if s.userRepo == nil {
		return nil
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError(shared.CodeNotFound, "User not found")
		}
		return err
	}
	return nil
}
