package http

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/course-auth-service/internal/observability"
	apperrors "github.com/spec-kit/course-auth-service/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
// The request logger runs outermost so it records the final status.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.RequestLogger(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
}

// ErrorHandler is installed as fiber.Config.ErrorHandler for errors raised
// outside the middleware chain.
func ErrorHandler(logger *zap.Logger, metrics *observability.Metrics) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return writeError(c, logger, metrics, err)
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				err = writeError(c, logger, metrics, err)
			}
		}()
		return c.Next()
	}
}

func writeError(c *fiber.Ctx, logger *zap.Logger, metrics *observability.Metrics, err error) error {
	domainErr := toDomainError(err)
	metrics.RecordError(c.Path(), c.Method(), string(domainErr.Code))

	if domainErr.IsServerFault() {
		logger.Error("request failed",
			zap.String("request_id", observability.RequestID(c)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("code", string(domainErr.Code)),
			zap.Error(domainErr),
		)
	}

	body := fiber.Map{
		"code":      domainErr.Code,
		"message":   domainErr.Message,
		"status":    domainErr.HTTPStatus,
		"timestamp": domainErr.Timestamp.Format(time.RFC3339),
	}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}
	return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": body})
}

// toDomainError also classifies errors produced by fiber itself, such as
// unmatched routes or malformed bodies.
func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if !errors.As(err, &fiberErr) {
		return apperrors.ToDomainError(err)
	}

	var kind apperrors.Kind
	switch fiberErr.Code {
	case http.StatusUnauthorized:
		kind = apperrors.KindMissingAuthHeader
	case http.StatusForbidden:
		kind = apperrors.KindInsufficientPermissions
	case http.StatusNotFound:
		kind = apperrors.KindNotFound
	case http.StatusConflict:
		kind = apperrors.KindAlreadyExists
	case http.StatusTooManyRequests:
		kind = apperrors.KindRateLimited
	default:
		if fiberErr.Code >= http.StatusInternalServerError {
			return apperrors.ToDomainError(apperrors.NewInternalError(fiberErr))
		}
		kind = apperrors.KindValidation
	}

	domainErr := apperrors.NewDomainError(kind, fiberErr.Message, nil)
	domainErr.HTTPStatus = fiberErr.Code
	return domainErr
}
