package errutil

import "net/http"

// CoreStatus is a transport-agnostic error code shared by every service.
type CoreStatus string

const (
	StatusBadRequest            CoreStatus = "BAD_REQUEST"
	StatusValidationFailed      CoreStatus = "VALIDATION_FAILED"
	StatusUnauthorized          CoreStatus = "UNAUTHORIZED"
	StatusForbidden             CoreStatus = "FORBIDDEN"
	StatusNotFound              CoreStatus = "NOT_FOUND"
	StatusConflict              CoreStatus = "CONFLICT"
	StatusUnprocessableEntity   CoreStatus = "UNPROCESSABLE_ENTITY"
	StatusUnsupportedMediaType  CoreStatus = "UNSUPPORTED_MEDIA_TYPE"
	StatusTooManyRequests       CoreStatus = "TOO_MANY_REQUESTS"
	StatusClientClosedRequest   CoreStatus = "CLIENT_CLOSED_REQUEST"
	StatusTimeout               CoreStatus = "TIMEOUT"
	StatusGatewayTimeout        CoreStatus = "GATEWAY_TIMEOUT"
	StatusInternal              CoreStatus = "INTERNAL"
	StatusNotImplemented        CoreStatus = "NOT_IMPLEMENTED"
	StatusBadGateway            CoreStatus = "BAD_GATEWAY"
	StatusServiceUnavailable    CoreStatus = "SERVICE_UNAVAILABLE"
	StatusUnknown               CoreStatus = "UNKNOWN"

	// Review and lifecycle failures. These need stable codes because the
	// admin UI branches on them.
	StatusInvalidTransition      CoreStatus = "INVALID_TRANSITION"
	StatusNotReviewable          CoreStatus = "NOT_REVIEWABLE"
	StatusBudgetExceeded         CoreStatus = "BUDGET_EXCEEDED"
	StatusConcurrentModification CoreStatus = "CONCURRENT_MODIFICATION"
)

// HTTPStatus converts the CoreStatus to its closest HTTP status code equivalent.
func (s CoreStatus) HTTPStatus() int {
	switch s {
	case StatusBadRequest, StatusValidationFailed:
		return http.StatusBadRequest
	case StatusUnauthorized:
		return http.StatusUnauthorized
	case StatusForbidden:
		return http.StatusForbidden
	case StatusNotFound:
		return http.StatusNotFound
	case StatusConflict:
		return http.StatusConflict
	case StatusUnprocessableEntity, StatusInvalidTransition, StatusNotReviewable:
		return http.StatusUnprocessableEntity
	case StatusBudgetExceeded, StatusConcurrentModification:
		return http.StatusConflict
	case StatusUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case StatusTooManyRequests:
		return http.StatusTooManyRequests
	case StatusClientClosedRequest:
		return 499
	case StatusTimeout:
		return http.StatusRequestTimeout
	case StatusGatewayTimeout:
		return http.StatusGatewayTimeout
	case StatusNotImplemented:
		return http.StatusNotImplemented
	case StatusBadGateway:
		return http.StatusBadGateway
	case StatusServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
