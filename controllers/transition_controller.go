package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greenmart/checkout-service/apperrors"
	"github.com/greenmart/checkout-service/metrics"
	"github.com/greenmart/checkout-service/models"
	"github.com/greenmart/checkout-service/services"
)

type TransitionController struct {
	Service services.TransitionService
	Metrics *metrics.Client
}

func NewTransitionController(service services.TransitionService, metricsClient *metrics.Client) *TransitionController {
	return &TransitionController{Service: service, Metrics: metricsClient}
}

// HandleCallback is invoked by the external scheduler at the registered
// trigger time, potentially hours after the payment request returned.
// Everything it needs is re-derived from the payload.
func (tc *TransitionController) HandleCallback(c *gin.Context) {
	orderID := c.Param("id")

	var req struct {
		Action      string `json:"action"`
		TargetState string `json:"target_state" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ErrBadRequest.WithErr(err))
		return
	}

	appErr := tc.Service.Apply(c.Request.Context(), orderID, models.OrderState(req.TargetState))
	if appErr != nil {
		// A rejected transition (e.g. the order was cancelled in the
		// interim) is expected. Answer 200 so the scheduler does not
		// retry a transition that will never become valid.
		if errors.Is(appErr, apperrors.ErrCallbackTransitionRejected) {
			_ = tc.Metrics.RecordCount(c.Request.Context(), metrics.MetricTransitionsRejected, nil)
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
		apperrors.Respond(c, appErr)
		return
	}

	_ = tc.Metrics.RecordCount(c.Request.Context(), metrics.MetricTransitionsApplied, nil)
	c.JSON(http.StatusOK, gin.H{"status": "applied", "order_id": orderID, "state": req.TargetState})
}
