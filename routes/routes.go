package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/greenmart/checkout-service/controllers"
	"github.com/greenmart/checkout-service/middleware"
)

func Register(
	r *gin.Engine,
	checkout *controllers.CheckoutController,
	payment *controllers.PaymentController,
	transition *controllers.TransitionController,
) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	checkoutRoutes := r.Group("/checkout")
	checkoutRoutes.Use(middleware.AuthMiddleware())
	checkoutRoutes.POST("/stage", checkout.StagePurchase)
	checkoutRoutes.GET("/staged", checkout.GetStaged)
	checkoutRoutes.PATCH("/staged/address", checkout.UpdateAddress)
	checkoutRoutes.PATCH("/staged/memo", checkout.UpdateMemo)
	checkoutRoutes.DELETE("/staged", checkout.ClearStaged)
	checkoutRoutes.POST("/commit", checkout.Commit)

	paymentRoutes := r.Group("/payments")
	paymentRoutes.Use(middleware.AuthMiddleware())
	paymentRoutes.POST("/confirm", payment.ConfirmPayment)

	// Scheduler callbacks arrive outside any user session.
	internal := r.Group("/internal")
	internal.Use(middleware.RateLimitMiddleware(rate.Limit(10), 20))
	internal.POST("/orders/:id/transition", transition.HandleCallback)
}
