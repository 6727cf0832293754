package tracking

import (
	"errors"

	"backend-waylog/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes exposes the session commands. The fix ingestion and
// permission endpoints act as the location-provider push channel for hosts
// that deliver device events over HTTP.
func RegisterRoutes(r fiber.Router, sess *Session, provider *PushProvider, store *Store, authMiddleware fiber.Handler) {
	r.Post("/arm", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			TripID string `json:"trip_id"`
		}
		if err := c.BodyParser(&body); err != nil || body.TripID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "trip_id required")
		}
		if err := sess.Arm(c.Context(), body.TripID); err != nil {
			return commandError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(sess.Snapshot())
	})

	r.Post("/start", authMiddleware, func(c *fiber.Ctx) error {
		if err := sess.Start(c.Context()); err != nil {
			return commandError(err)
		}
		return c.JSON(sess.Snapshot())
	})

	r.Post("/pause", authMiddleware, func(c *fiber.Ctx) error {
		if err := sess.Pause(c.Context()); err != nil {
			return commandError(err)
		}
		return c.JSON(sess.Snapshot())
	})

	r.Post("/resume", authMiddleware, func(c *fiber.Ctx) error {
		if err := sess.Resume(c.Context()); err != nil {
			return commandError(err)
		}
		return c.JSON(sess.Snapshot())
	})

	r.Post("/complete", authMiddleware, func(c *fiber.Ctx) error {
		if err := sess.Complete(c.Context()); err != nil {
			return commandError(err)
		}
		return c.JSON(sess.Snapshot())
	})

	r.Post("/abandon", authMiddleware, func(c *fiber.Ctx) error {
		sess.Abandon()
		return c.JSON(sess.Snapshot())
	})

	r.Post("/flush", authMiddleware, func(c *fiber.Ctx) error {
		if err := sess.Flush(c.Context()); err != nil {
			return commandError(err)
		}
		return c.JSON(sess.Snapshot())
	})

	r.Post("/fixes", authMiddleware, func(c *fiber.Ctx) error {
		var fix geo.Fix
		if err := c.BodyParser(&fix); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if fix.RecordedAt.IsZero() {
			return fiber.NewError(fiber.StatusBadRequest, "recorded_at required")
		}
		if err := sess.HandleFix(fix); err != nil {
			// stale or out-of-session fixes are dropped, not errors
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"dropped": true})
		}
		return c.JSON(sess.Snapshot())
	})

	r.Post("/permission", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Granted bool `json:"granted"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		provider.SetGranted(body.Granted)
		if !body.Granted {
			if err := sess.PermissionRevoked(c.Context()); err != nil {
				return commandError(err)
			}
		}
		return c.JSON(sess.Snapshot())
	})

	r.Get("/state", func(c *fiber.Ctx) error {
		return c.JSON(sess.Snapshot())
	})

	r.Get("/trips/:id/sessions", func(c *fiber.Ctx) error {
		records, err := store.Sessions(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(records)
	})
}

func commandError(err error) error {
	switch {
	case errors.Is(err, ErrMissingPermission):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, ErrNoTripArmed),
		errors.Is(err, ErrAlreadyTracking),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrTripCompleted):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrPersistenceWrite):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
