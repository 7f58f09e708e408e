package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/greenmart/checkout-service/apperrors"
	"github.com/greenmart/checkout-service/clients"
	"github.com/greenmart/checkout-service/database"
	"github.com/greenmart/checkout-service/kafka"
	"github.com/greenmart/checkout-service/models"
	"github.com/greenmart/checkout-service/staging"
)

// CheckoutService drives a purchase from staging to a committed order.
type CheckoutService interface {
	Stage(ctx context.Context, userID string, staged *models.StagedOrder) (string, *apperrors.Error)
	Staged(ctx context.Context, userID, token string) (*models.StagedOrder, *apperrors.Error)
	UpdateAddress(ctx context.Context, userID, token, address string) (string, *apperrors.Error)
	UpdateMemo(ctx context.Context, userID, token, memo string) (string, *apperrors.Error)
	Commit(ctx context.Context, userID, token string) (*CommitResult, *apperrors.Error)
}

type CommitResult struct {
	OrderID     string `json:"order_id"`
	RedirectURL string `json:"redirect_url"`
}

type checkoutServiceImpl struct {
	tokens             *staging.TokenStore
	orders             clients.OrderAPI
	carts              clients.CartAPI
	sessions           database.SessionRepository
	events             kafka.EventPublisher
	paymentRedirectURL string
	logger             *zap.Logger
}

func NewCheckoutService(
	tokens *staging.TokenStore,
	orders clients.OrderAPI,
	carts clients.CartAPI,
	sessions database.SessionRepository,
	events kafka.EventPublisher,
	paymentRedirectURL string,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		tokens:             tokens,
		orders:             orders,
		carts:              carts,
		sessions:           sessions,
		events:             events,
		paymentRedirectURL: paymentRedirectURL,
		logger:             logger,
	}
}

func (s *checkoutServiceImpl) Stage(ctx context.Context, userID string, staged *models.StagedOrder) (string, *apperrors.Error) {
	if err := staged.Validate(); err != nil {
		return "", apperrors.ErrBadRequest.WithErr(err)
	}

	token, err := s.tokens.Issue(userID, staged)
	if err != nil {
		s.logger.Error("Failed to issue staging token", zap.Error(err))
		return "", apperrors.ErrInternalServer.WithErr(err)
	}

	s.logger.Info("Purchase staged",
		zap.String("user_id", userID),
		zap.String("kind", string(staged.Kind)),
		zap.Int("items", len(staged.Items)),
		zap.Int64("total", staged.TotalAmount),
	)
	return token, nil
}

func (s *checkoutServiceImpl) Staged(ctx context.Context, userID, token string) (*models.StagedOrder, *apperrors.Error) {
	staged, err := s.tokens.Decode(token, userID)
	if err != nil {
		return nil, apperrors.ErrExpiredOrMissingStage
	}
	return staged, nil
}

func (s *checkoutServiceImpl) UpdateAddress(ctx context.Context, userID, token, address string) (string, *apperrors.Error) {
	updated, err := s.tokens.Reissue(token, userID, func(staged *models.StagedOrder) {
		staged.Address = address
	})
	if err != nil {
		return "", apperrors.ErrExpiredOrMissingStage
	}
	return updated, nil
}

func (s *checkoutServiceImpl) UpdateMemo(ctx context.Context, userID, token, memo string) (string, *apperrors.Error) {
	updated, err := s.tokens.Reissue(token, userID, func(staged *models.StagedOrder) {
		staged.Memo = memo
	})
	if err != nil {
		return "", apperrors.ErrExpiredOrMissingStage
	}
	return updated, nil
}

// Commit turns the staged order into a durable order. Order creation is the
// only strict step; cart cleanup and session bookkeeping are best-effort
// because the created order is already the source of truth, and retrying
// creation after a partial cleanup would risk duplicate orders.
func (s *checkoutServiceImpl) Commit(ctx context.Context, userID, token string) (*CommitResult, *apperrors.Error) {
	staged, err := s.tokens.Decode(token, userID)
	if err != nil {
		return nil, apperrors.ErrExpiredOrMissingStage
	}

	order, err := s.orders.Create(ctx, &clients.CreateOrderRequest{
		OwnerID:   userID,
		LineItems: staged.Items,
		Address:   staged.Address,
		Memo:      staged.Memo,
	})
	if err != nil {
		s.logger.Error("Order creation failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		if clients.IsTimeout(err) {
			return nil, apperrors.ErrGatewayTimeout.WithErr(err)
		}
		// Staged token is untouched; the client can safely retry.
		return nil, apperrors.ErrOrderCreateFailed.WithErr(err)
	}

	if staged.Kind == models.PurchaseCart {
		deleteCartLines(ctx, s.carts, staged.CartLineIDs, s.logger)

		// Remember the source cart lines so reconciliation can sweep any
		// stragglers after payment.
		session := &models.CheckoutSession{
			OrderID:     order.ID,
			UserID:      userID,
			CartLineIDs: staged.CartLineIDs,
		}
		if err := s.sessions.Save(ctx, session); err != nil {
			s.logger.Warn("Failed to save checkout session",
				zap.String("order_id", order.ID),
				zap.Error(err),
			)
		}
	}

	if err := s.events.SendOrderEvent(models.OrderEvent{
		Type:      models.EventOrderCreated,
		OrderID:   order.ID,
		UserID:    userID,
		Amount:    order.Cost.Total,
		State:     order.State,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("Failed to publish order created event",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
	}

	s.logger.Info("Order committed",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.Int64("total", order.Cost.Total),
	)

	return &CommitResult{
		OrderID:     order.ID,
		RedirectURL: fmt.Sprintf("%s?order_id=%s", s.paymentRedirectURL, order.ID),
	}, nil
}

// deleteCartLines fans out one delete per line. Each line is independent, so
// failures are collected and logged instead of aborting the rest.
func deleteCartLines(ctx context.Context, carts clients.CartAPI, lineIDs []string, logger *zap.Logger) {
	if len(lineIDs) == 0 {
		return
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
	)
	for _, lineID := range lineIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := carts.DeleteLine(ctx, id); err != nil {
				logger.Warn("Cart line cleanup failed",
					zap.String("line_id", id),
					zap.Error(err),
				)
				mu.Lock()
				failed = append(failed, id)
				mu.Unlock()
			}
		}(lineID)
	}
	wg.Wait()

	if len(failed) > 0 {
		logger.Warn("Cart cleanup left stale lines behind",
			zap.Strings("line_ids", failed),
		)
	}
}
