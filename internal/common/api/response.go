package api

import (
	"errors"

	"go-agri/internal/common/apperr"
	"go-agri/internal/common/models"

	"github.com/gofiber/fiber/v2"
)

// Response is the tagged success/failure envelope every endpoint returns.
type Response struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	Data       interface{}        `json:"data,omitempty"`
	Errors     map[string]string  `json:"errors,omitempty"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
}

func Success(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func SuccessPaged(c *fiber.Ctx, message string, data interface{}, p models.Pagination) error {
	return c.JSON(Response{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: &p,
	})
}

// Fail renders an error into the envelope. Internal errors get a generic
// message so storage details never reach the caller.
func Fail(c *fiber.Ctx, err error) error {
	var e *apperr.Error
	if !errors.As(err, &e) {
		e = apperr.Internal(err)
	}

	message := e.Message
	if e.Kind == apperr.KindInternal {
		message = "something went wrong"
	}

	return c.Status(e.Kind.StatusCode()).JSON(Response{
		Success: false,
		Message: message,
		Errors:  e.Fields,
	})
}
