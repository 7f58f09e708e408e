package apperrors

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error is an application error carrying the HTTP status it maps to.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithErr returns a copy of e wrapping the given cause. The named taxonomy
// values below stay immutable.
func (e *Error) WithErr(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: err}
}

// Is lets errors.Is match a wrapped taxonomy value by code and message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code && t.Message == e.Message
}

func New(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Checkout pipeline error taxonomy.
var (
	ErrExpiredOrMissingStage       = New(http.StatusNotFound, "No staged purchase or it has expired")
	ErrOrderCreateFailed           = New(http.StatusBadGateway, "Order creation failed")
	ErrOrderNotFound               = New(http.StatusNotFound, "Order not found")
	ErrPaymentNotCompleted         = New(http.StatusBadRequest, "Payment has not been completed")
	ErrAmountMismatch              = New(http.StatusBadRequest, "Payment amount does not match order total")
	ErrGatewayTimeout              = New(http.StatusGatewayTimeout, "Upstream service timed out")
	ErrSchedulerRegistrationFailed = New(http.StatusBadGateway, "Scheduler registration failed")
	ErrCallbackTransitionRejected  = New(http.StatusConflict, "Order state transition rejected")
)

// Generic error types.
var (
	ErrBadRequest     = New(http.StatusBadRequest, "Bad request")
	ErrUnauthorized   = New(http.StatusUnauthorized, "Unauthorized")
	ErrBadGateway     = New(http.StatusBadGateway, "Upstream service error")
	ErrInternalServer = New(http.StatusInternalServerError, "Internal server error")
)

// Respond writes err as the JSON response. Non-application errors are
// reported as an opaque 500.
func Respond(c *gin.Context, err error) {
	if appErr, ok := err.(*Error); ok {
		c.JSON(appErr.Code, appErr)
		return
	}
	c.JSON(ErrInternalServer.Code, ErrInternalServer)
}
