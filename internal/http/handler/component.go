package handler

import (
	"fmt"
	"math"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/mmaioli/projects/internal/service"
)

// payloadBody wraps a record (or a list of records) the way every success
// response carries it.
type payloadBody struct {
	Message string `json:"message,omitempty"`
	Payload any    `json:"payload"`
}

// CreateComponent handles POST /components.
func CreateComponent(svc service.ComponentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Name string `json:"name"`
		}
		if err := c.BodyParser(&body); err != nil || body.Name == "" {
			return badRequest(c, msgNameRequired)
		}

		comp, err := svc.Create(c.UserContext(), body.Name)
		if err != nil {
			return respondServiceError(c, err)
		}
		return c.JSON(payloadBody{Message: msgComponentCreated, Payload: comp})
	}
}

// UpdateComponent handles PATCH /components/:componentId. Absent fields are
// left unchanged; parameters may carry any JSON value.
func UpdateComponent(svc service.ComponentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Name       string `json:"name"`
			Parameters any    `json:"parameters"`
		}
		if err := c.BodyParser(&body); err != nil {
			return badRequest(c, msgInvalidBody)
		}

		comp, err := svc.Update(c.UserContext(), c.Params("componentId"), body.Name, body.Parameters)
		if err != nil {
			return respondServiceError(c, err)
		}
		return c.JSON(payloadBody{Message: msgComponentUpdated, Payload: comp})
	}
}

// DeleteComponent handles DELETE /components/:componentId.
func DeleteComponent(svc service.ComponentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("componentId")); err != nil {
			return respondServiceError(c, err)
		}
		return c.JSON(messageBody{Message: msgComponentDeleted})
	}
}

// ListComponents handles GET /components.
func ListComponents(svc service.ComponentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.List(c.UserContext())
		if err != nil {
			return respondServiceError(c, err)
		}
		return c.JSON(payloadBody{Payload: items})
	}
}

// GetComponent handles GET /components/:componentId.
func GetComponent(svc service.ComponentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		comp, err := svc.Get(c.UserContext(), c.Params("componentId"))
		if err != nil {
			return respondServiceError(c, err)
		}
		return c.JSON(payloadBody{Payload: comp})
	}
}

// UploadComponentFile handles POST /components/:componentId/files. Every
// file part of the multipart form counts toward the one-file limit,
// regardless of its field name.
func UploadComponentFile(svc service.ComponentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return badRequest(c, msgMultipartRequired)
		}

		var files []*multipart.FileHeader
		for _, fieldFiles := range form.File {
			files = append(files, fieldFiles...)
		}

		info, err := svc.UploadAttachment(c.UserContext(), c.Params("componentId"), files)
		if err != nil {
			return respondServiceError(c, err)
		}
		if info == nil {
			// Zero files in the form is a silent success with an empty body.
			return c.Status(fiber.StatusOK).Send(nil)
		}
		return c.SendString(msgFileUploaded)
	}
}

// DownloadComponentFile handles GET /components/:componentId/files/:fileName.
// The object is relayed to the response unbuffered; the stream is closed by
// the server once the body is written out.
func DownloadComponentFile(svc service.ComponentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileName := c.Params("fileName")

		rc, info, err := svc.OpenAttachment(c.UserContext(), c.Params("componentId"), fileName)
		if err != nil {
			return respondServiceError(c, err)
		}

		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fileName))
		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		return c.SendStream(rc, streamSize(info.Size))
	}
}

// streamSize clamps an object size to the platform int for SendStream.
// A size past the int range (32-bit platforms, objects over 2 GiB) selects
// chunked transfer instead of a truncated Content-Length.
func streamSize(n int64) int {
	if n > math.MaxInt {
		return -1
	}
	return int(n)
}

// DownloadBase64 handles POST /components/download-base64. The path is an
// arbitrary storage key, not restricted to the components prefix.
func DownloadBase64(svc service.ComponentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Path string `json:"path"`
		}
		if err := c.BodyParser(&body); err != nil {
			return badRequest(c, msgInvalidBody)
		}

		payload, err := svc.DownloadBase64(c.UserContext(), body.Path)
		if err != nil {
			return respondServiceError(c, err)
		}
		return c.JSON(payloadBody{Payload: payload})
	}
}
