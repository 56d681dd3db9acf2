package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/vaultpay/backend/internal/http/dto"
	pkgerrors "github.com/vaultpay/backend/pkg/errors"
)

// domainError maps the escrow error taxonomy to HTTP responses. Every
// domain failure is all-or-nothing, so callers can safely retry after
// refreshing their view.
func domainError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		code = fiber.StatusBadRequest
	case errors.Is(err, pkgerrors.ErrInsufficientFunds):
		code = fiber.StatusPaymentRequired
	case errors.Is(err, pkgerrors.ErrInvalidTransition), errors.Is(err, pkgerrors.ErrNotAcceptedState):
		code = fiber.StatusConflict
	case errors.Is(err, pkgerrors.ErrEmailExists):
		code = fiber.StatusConflict
	case errors.Is(err, pkgerrors.ErrInvalidCredentials):
		code = fiber.StatusUnauthorized
	}

	msg := err.Error()
	if code == fiber.StatusInternalServerError {
		msg = "internal error"
	}
	return c.Status(code).JSON(dto.ErrorResponse{Error: msg})
}
