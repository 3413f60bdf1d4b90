package handler

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/Deadlock-JunctionX/LockMoney/internal/core/domain"
	"github.com/Deadlock-JunctionX/LockMoney/internal/core/lock"
)

// writeError maps a domain error to its HTTP status. Anything unmapped
// is a 500 with a generic body so internals never leak to the client.
func writeError(c *fiber.Ctx, err error) error {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrUnknownPrincipal),
		errors.Is(err, domain.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrInsufficientScope),
		errors.Is(err, domain.ErrNotAccountOwner):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrInvalidAccountRef):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrIncorrectPin),
		errors.Is(err, domain.ErrInvalidSecondFactor),
		errors.Is(err, domain.ErrSameAccount):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInsufficientBalance):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, lock.ErrBusy):
		status, msg = http.StatusLocked, err.Error()
	case errors.Is(err, domain.ErrPersistence):
		status, msg = http.StatusInternalServerError, domain.ErrPersistence.Error()
	}

	return c.Status(status).JSON(fiber.Map{"error": msg})
}
