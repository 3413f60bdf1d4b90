package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Deadlock-JunctionX/LockMoney/internal/adapter/middleware"
	"github.com/Deadlock-JunctionX/LockMoney/internal/adapter/storage"
	"github.com/Deadlock-JunctionX/LockMoney/internal/core/auth"
	"github.com/Deadlock-JunctionX/LockMoney/internal/core/domain"
	"github.com/Deadlock-JunctionX/LockMoney/internal/core/engine"
)

const maxDescriptionLen = 255

type TransferHandler struct {
	Engine *engine.Engine
	Ledger *storage.LedgerRepository
}

// Submit parses and validates the request shape, then hands off to the
// engine. Amount and description bounds are enforced here, upstream of
// the state machine.
func (h *TransferHandler) Submit(c *fiber.Ctx) error {
	var req domain.TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Amount <= 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Amount must be positive"})
	}
	if len(req.Description) > maxDescriptionLen {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Description too long"})
	}

	p := middleware.PrincipalFromCtx(c)

	entry, err := h.Engine.Submit(c.Context(), p, &req)
	if err != nil {
		slog.Warn("Transfer rejected",
			"user_id", p.User.ID, "from", req.FromAccountID, "to", req.ToAccountID, "error", err)
		return writeError(c, err)
	}

	slog.Info("Transfer committed",
		"transaction_id", entry.ID, "from", req.FromAccountID, "to", req.ToAccountID,
		"amount", req.Amount, "delegated", p.Delegated())
	return c.Status(http.StatusCreated).JSON(entry)
}

// History returns recent ledger entries for one of the caller's
// accounts.
func (h *TransferHandler) History(c *fiber.Ctx) error {
	p := middleware.PrincipalFromCtx(c)
	if err := p.RequireScope(auth.ScopeReadOwnAccounts); err != nil {
		return writeError(c, err)
	}

	accountID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account id"})
	}

	history, err := h.Ledger.History(c.Context(), accountID, 10)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch history"})
	}
	return c.JSON(fiber.Map{"transactions": history})
}
