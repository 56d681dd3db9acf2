package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vaultpay/backend/internal/http/dto"
	"github.com/vaultpay/backend/internal/middleware"
	"github.com/vaultpay/backend/internal/repositories"
	"go.uber.org/zap"
)

type UserHandler struct {
	store repositories.Store
	log   *zap.Logger
}

func NewUserHandler(store repositories.Store, log *zap.Logger) *UserHandler {
	return &UserHandler{store: store, log: log}
}

func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	user, err := h.store.GetUser(c.Context(), userID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: user})
}

// Lookup resolves a vault ID to a minimal public profile so a sender can
// confirm the receiver before locking funds.
func (h *UserHandler) Lookup(c *fiber.Ctx) error {
	user, err := h.store.GetUserByVaultID(c.Context(), c.Params("vid"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.UserLookupResponse{
		VaultID: user.VaultID,
		Name:    user.Name,
	}})
}
