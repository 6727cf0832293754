package trip

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Trip
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.UserID == "" {
			req.UserID, _ = c.Locals("user_id").(string)
		}
		if req.Destination == "" || req.UserID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "destination and user_id required")
		}
		t, err := svc.CreateTrip(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(t)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		t, err := svc.GetTrip(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "trip not found")
		}
		return c.JSON(t)
	})

	r.Get("/:id/relevance", func(c *fiber.Ctx) error {
		t, err := svc.GetTrip(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "trip not found")
		}
		now := time.Now()
		return c.JSON(fiber.Map{
			"relevance":         Classify(t, now),
			"tracking_eligible": TrackingEligible(t, now),
		})
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req Trip
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		t, err := svc.UpdatePlan(c.Context(), c.Params("id"), req)
		if err != nil {
			if errors.Is(err, ErrInvalidPlan) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(t)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeleteTrip(c.Context(), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if q := c.Query("user_id"); q != "" {
			userID = q
		}
		if userID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}
		if c.Query("grouped") == "true" {
			g, err := svc.ListGrouped(c.Context(), userID, time.Now())
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
			return c.JSON(g)
		}
		trips, err := svc.ListTrips(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(trips)
	})
}
