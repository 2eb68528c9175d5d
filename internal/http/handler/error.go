package handler

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/mmaioli/projects/internal/http/middleware"
	"github.com/mmaioli/projects/internal/service"
)

// messageBody is the JSON body for success messages and 400 responses.
// 500 responses carry no body so internal detail never reaches the client.
type messageBody struct {
	Message string `json:"message"`
}

// Client-facing message strings. The not-found texts intentionally do not
// distinguish a malformed identifier from an absent row.
const (
	msgNameRequired       = "name is required"
	msgPathRequired       = "path is required"
	msgComponentNotExist  = "The specified component does not exist"
	msgFileNotExist       = "The specified file does not exist"
	msgAttachmentLimit    = "Attachment limit reached"
	msgTooManyFiles       = "Maximum 1 file is allowed"
	msgInvalidBody        = "invalid request body"
	msgMultipartRequired  = "a multipart form is required"
	msgComponentCreated   = "Component created"
	msgComponentUpdated   = "Component updated"
	msgComponentDeleted   = "Component deleted"
	msgFileUploaded       = "File uploaded successfully"
)

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(messageBody{Message: message})
}

// internalError logs the underlying error as a JSON line and answers with a
// bare 500.
func internalError(c *fiber.Ctx, err error) error {
	fields := map[string]any{
		"level":      "error",
		"msg":        "request_failed",
		"request_id": requestIDFromCtx(c),
		"method":     c.Method(),
		"path":       c.Path(),
		"error":      err.Error(),
	}
	if sc := trace.SpanContextFromContext(c.UserContext()); sc.HasTraceID() {
		fields["trace_id"] = sc.TraceID().String()
	}
	logJSON(fields)
	// Status only; SendStatus would fill the body with the status text.
	return c.Status(fiber.StatusInternalServerError).Send(nil)
}

// respondServiceError maps the service sentinels onto 400 bodies; everything
// else is logged and answered 500.
func respondServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNameRequired):
		return badRequest(c, msgNameRequired)
	case errors.Is(err, service.ErrPathRequired):
		return badRequest(c, msgPathRequired)
	case errors.Is(err, service.ErrNotFound):
		return badRequest(c, msgComponentNotExist)
	case errors.Is(err, service.ErrFileNotFound):
		return badRequest(c, msgFileNotExist)
	case errors.Is(err, service.ErrAttachmentLimit):
		return badRequest(c, msgAttachmentLimit)
	case errors.Is(err, service.ErrTooManyFiles):
		return badRequest(c, msgTooManyFiles)
	default:
		return internalError(c, err)
	}
}

// ErrorHandler returns the fiber app-level error handler covering errors the
// router produces itself (unknown route, method not allowed, body too large).
// 4xx keep their fiber message in the standard body shape; anything else is
// logged and stripped down to a bare 500.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
			return c.Status(fe.Code).JSON(messageBody{Message: fe.Message})
		}
		return internalError(c, err)
	}
}

func logJSON(fields map[string]any) {
	fields["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	_ = json.NewEncoder(os.Stdout).Encode(fields)
}
