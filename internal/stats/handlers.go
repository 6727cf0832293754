package stats

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/overview", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if q := c.Query("user_id"); q != "" {
			userID = q
		}
		if userID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}
		o, err := svc.Overview(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(o)
	})

	r.Get("/by-type", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if q := c.Query("user_id"); q != "" {
			userID = q
		}
		if userID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}
		breakdown, err := svc.ByType(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(breakdown)
	})
}
