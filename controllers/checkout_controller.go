package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/greenmart/checkout-service/apperrors"
	"github.com/greenmart/checkout-service/metrics"
	"github.com/greenmart/checkout-service/middleware"
	"github.com/greenmart/checkout-service/models"
	"github.com/greenmart/checkout-service/services"
)

// StagedCookie carries the signed staged-order token. The cookie *is* the
// staging store; clearing a staged purchase is dropping the cookie.
const StagedCookie = "staged_order"

type CheckoutController struct {
	Service  services.CheckoutService
	Metrics  *metrics.Client
	TokenTTL time.Duration
}

func NewCheckoutController(service services.CheckoutService, metricsClient *metrics.Client, tokenTTL time.Duration) *CheckoutController {
	return &CheckoutController{
		Service:  service,
		Metrics:  metricsClient,
		TokenTTL: tokenTTL,
	}
}

// StagePurchase starts a purchase: validates the payload and hands the
// client a signed staging token.
func (cc *CheckoutController) StagePurchase(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return
	}

	var staged models.StagedOrder
	if err := c.ShouldBindJSON(&staged); err != nil {
		apperrors.Respond(c, apperrors.ErrBadRequest.WithErr(err))
		return
	}

	token, appErr := cc.Service.Stage(c.Request.Context(), userID, &staged)
	if appErr != nil {
		apperrors.Respond(c, appErr)
		return
	}

	cc.setStagedCookie(c, token)
	c.JSON(http.StatusCreated, gin.H{
		"staged":     true,
		"expires_in": int(cc.TokenTTL.Seconds()),
	})
}

// GetStaged returns the current staged purchase for the checkout UI.
func (cc *CheckoutController) GetStaged(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return
	}

	staged, appErr := cc.Service.Staged(c.Request.Context(), userID, cc.stagedToken(c))
	if appErr != nil {
		apperrors.Respond(c, appErr)
		return
	}
	c.JSON(http.StatusOK, staged)
}

// UpdateAddress sets the shipping address on the staged purchase.
func (cc *CheckoutController) UpdateAddress(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return
	}

	var req struct {
		Address string `json:"address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ErrBadRequest.WithErr(err))
		return
	}

	token, appErr := cc.Service.UpdateAddress(c.Request.Context(), userID, cc.stagedToken(c), req.Address)
	if appErr != nil {
		apperrors.Respond(c, appErr)
		return
	}

	cc.setStagedCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// UpdateMemo sets the delivery memo on the staged purchase.
func (cc *CheckoutController) UpdateMemo(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return
	}

	var req struct {
		Memo string `json:"memo" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ErrBadRequest.WithErr(err))
		return
	}

	token, appErr := cc.Service.UpdateMemo(c.Request.Context(), userID, cc.stagedToken(c), req.Memo)
	if appErr != nil {
		apperrors.Respond(c, appErr)
		return
	}

	cc.setStagedCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// ClearStaged cancels the staged purchase.
func (cc *CheckoutController) ClearStaged(c *gin.Context) {
	cc.clearStagedCookie(c)
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// Commit turns the staged purchase into a durable order and points the
// client at the payment step.
func (cc *CheckoutController) Commit(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return
	}

	result, appErr := cc.Service.Commit(c.Request.Context(), userID, cc.stagedToken(c))
	if appErr != nil {
		apperrors.Respond(c, appErr)
		return
	}

	cc.clearStagedCookie(c)
	_ = cc.Metrics.RecordCount(c.Request.Context(), metrics.MetricOrdersCommitted, nil)
	c.JSON(http.StatusCreated, result)
}

func (cc *CheckoutController) stagedToken(c *gin.Context) string {
	token, _ := c.Cookie(StagedCookie)
	return token
}

func (cc *CheckoutController) setStagedCookie(c *gin.Context, token string) {
	c.SetCookie(StagedCookie, token, int(cc.TokenTTL.Seconds()), "/", "", false, true)
}

func (cc *CheckoutController) clearStagedCookie(c *gin.Context) {
	c.SetCookie(StagedCookie, "", -1, "/", "", false, true)
}
