package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vaultpay/backend/internal/http/dto"
	"github.com/vaultpay/backend/internal/middleware"
	"github.com/vaultpay/backend/internal/repositories"
	"github.com/vaultpay/backend/internal/services"
	pkgerrors "github.com/vaultpay/backend/pkg/errors"
	"go.uber.org/zap"
)

type TransactionHandler struct {
	escrow *services.EscrowService
	store  repositories.Store
	log    *zap.Logger
}

func NewTransactionHandler(escrow *services.EscrowService, store repositories.Store, log *zap.Logger) *TransactionHandler {
	return &TransactionHandler{escrow: escrow, store: store, log: log}
}

func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return domainError(c, fmt.Errorf("%w: amount must be a decimal string", pkgerrors.ErrInvalidArgument))
	}

	receiver, err := h.store.GetUserByVaultID(c.Context(), req.ReceiverVID)
	if err != nil {
		return domainError(c, err)
	}

	t, err := h.escrow.CreateTransaction(c.Context(), middleware.GetUserID(c), receiver.ID, amount, req.Conditions, req.TimeLimitHours)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: t})
}

func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domainError(c, fmt.Errorf("%w: invalid transaction id", pkgerrors.ErrInvalidArgument))
	}

	t, err := h.escrow.GetTransaction(c.Context(), id, middleware.GetUserID(c))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: t})
}

func (h *TransactionHandler) List(c *fiber.Ctx) error {
	filter := repositories.TransactionFilter{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if role := c.Query("role"); role != "" {
		if role != "sender" && role != "receiver" {
			return domainError(c, fmt.Errorf("%w: role must be sender or receiver", pkgerrors.ErrInvalidArgument))
		}
		filter.Role = role
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	list, err := h.escrow.ListForUser(c.Context(), middleware.GetUserID(c), filter)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: list})
}

func (h *TransactionHandler) Accept(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domainError(c, fmt.Errorf("%w: invalid transaction id", pkgerrors.ErrInvalidArgument))
	}

	t, err := h.escrow.AcceptTransaction(c.Context(), id, middleware.GetUserID(c))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: t})
}

func (h *TransactionHandler) Cancel(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domainError(c, fmt.Errorf("%w: invalid transaction id", pkgerrors.ErrInvalidArgument))
	}

	t, err := h.escrow.CancelTransaction(c.Context(), id, middleware.GetUserID(c))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: t})
}

func (h *TransactionHandler) UpdateCondition(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domainError(c, fmt.Errorf("%w: invalid transaction id", pkgerrors.ErrInvalidArgument))
	}
	index, err := c.ParamsInt("index")
	if err != nil {
		return domainError(c, fmt.Errorf("%w: invalid condition index", pkgerrors.ErrInvalidArgument))
	}

	var req dto.UpdateConditionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	t, err := h.escrow.UpdateCondition(c.Context(), id, index, req.Completed, middleware.GetUserID(c))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: t})
}
