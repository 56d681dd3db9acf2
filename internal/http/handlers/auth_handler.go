package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/vaultpay/backend/internal/auth"
	"github.com/vaultpay/backend/internal/config"
	"github.com/vaultpay/backend/internal/http/dto"
	"github.com/vaultpay/backend/internal/models"
	"github.com/vaultpay/backend/internal/repositories"
	"github.com/vaultpay/backend/internal/vaultid"
	pkgerrors "github.com/vaultpay/backend/pkg/errors"
	"go.uber.org/zap"
)

type AuthHandler struct {
	store  repositories.Store
	vidGen *vaultid.Generator
	cfg    *config.Config
	log    *zap.Logger
}

func NewAuthHandler(store repositories.Store, cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		store:  store,
		vidGen: vaultid.New(vaultid.UserLength, store.VaultIDExists),
		cfg:    cfg,
		log:    log,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || len(req.Password) < 8 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "name, email and a password of at least 8 characters are required"})
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.Error("failed to hash password", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	vid, err := h.vidGen.Generate(c.Context())
	if err != nil {
		h.log.Error("failed to generate vault id", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	user := &models.User{
		VaultID:       vid,
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Location:      req.Location,
		PasswordHash:  hash,
		Balance:       h.cfg.InitialBalance,
		EscrowBalance: decimal.Zero,
	}
	if err := h.store.CreateUser(c.Context(), user); err != nil {
		return domainError(c, err)
	}

	token, err := auth.GenerateJWT(h.cfg.JWTSecret, user.ID, user.VaultID, h.cfg.JWTExpiration)
	if err != nil {
		h.log.Error("failed to generate jwt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.AuthResponse{Token: token, User: user})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	user, err := h.store.GetUserByEmail(c.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return domainError(c, pkgerrors.ErrInvalidCredentials)
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return domainError(c, pkgerrors.ErrInvalidCredentials)
	}

	token, err := auth.GenerateJWT(h.cfg.JWTSecret, user.ID, user.VaultID, h.cfg.JWTExpiration)
	if err != nil {
		h.log.Error("failed to generate jwt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.AuthResponse{Token: token, User: user})
}
