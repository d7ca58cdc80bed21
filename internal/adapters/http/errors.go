package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mjsgreen01/Instatrip/internal/core/domain"
)

// invalidLocationMessage is what browser clients match on.
const invalidLocationMessage = "Invalid location"

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, invalid_location, provider_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, 503, "unavailable", msg)
}

// statusFor classifies a trip planning error.
func statusFor(err error) (int, string, string) {
	var perr *domain.ProviderError
	switch {
	case errors.Is(err, domain.ErrInvalidTripRequest):
		return 400, "bad_request", err.Error()
	case errors.Is(err, domain.ErrInvalidLocation):
		return 400, "invalid_location", invalidLocationMessage
	case errors.Is(err, domain.ErrPlannerUnavailable):
		return 503, "unavailable", err.Error()
	case errors.As(err, &perr):
		return 502, "provider_error", perr.Provider + " is unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return 504, "timeout", "trip planning timed out"
	}
	return 500, "internal_error", "internal error"
}

// errTrip maps a trip planning error onto the APIError envelope.
func errTrip(c *fiber.Ctx, err error) error {
	status, code, msg := statusFor(err)
	if status >= 500 {
		LoggerFromCtx(c.UserContext()).Error("trip request failed", "status", status, "error", err)
	}
	return newError(c, status, code, msg)
}
