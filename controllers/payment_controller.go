package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greenmart/checkout-service/apperrors"
	"github.com/greenmart/checkout-service/metrics"
	"github.com/greenmart/checkout-service/middleware"
	"github.com/greenmart/checkout-service/services"
)

type PaymentController struct {
	Service services.PaymentService
	Metrics *metrics.Client
}

func NewPaymentController(service services.PaymentService, metricsClient *metrics.Client) *PaymentController {
	return &PaymentController{Service: service, Metrics: metricsClient}
}

// ConfirmPayment reconciles a payment confirmation from the checkout UI
// against the provider's record and the committed order.
func (pc *PaymentController) ConfirmPayment(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return
	}

	var req struct {
		OrderID   string `json:"order_id" binding:"required"`
		PaymentID string `json:"payment_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ErrBadRequest.WithErr(err))
		return
	}

	result, appErr := pc.Service.Reconcile(c.Request.Context(), userID, req.OrderID, req.PaymentID)
	if appErr != nil {
		if errors.Is(appErr, apperrors.ErrAmountMismatch) {
			_ = pc.Metrics.RecordCount(c.Request.Context(), metrics.MetricAmountMismatches, nil)
		}
		apperrors.Respond(c, appErr)
		return
	}

	_ = pc.Metrics.RecordCount(c.Request.Context(), metrics.MetricPaymentsReconciled, nil)
	c.JSON(http.StatusOK, result)
}
