package annotation

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/trips/:id/notes", authMiddleware, func(c *fiber.Ctx) error {
		var req Note
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		req.TripID = c.Params("id")
		if req.UserID == "" {
			req.UserID, _ = c.Locals("user_id").(string)
		}
		note, err := svc.AddNote(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(note)
	})

	r.Get("/trips/:id/notes", func(c *fiber.Ctx) error {
		notes, err := svc.Notes(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(notes)
	})

	r.Put("/notes/:id", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Text string `json:"text"`
		}
		if err := c.BodyParser(&body); err != nil || body.Text == "" {
			return fiber.NewError(fiber.StatusBadRequest, "text required")
		}
		note, err := svc.UpdateNote(c.Context(), c.Params("id"), body.Text)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(note)
	})

	r.Delete("/notes/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeleteNote(c.Context(), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/trips/:id/photos", authMiddleware, func(c *fiber.Ctx) error {
		var req Photo
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		req.TripID = c.Params("id")
		if req.UserID == "" {
			req.UserID, _ = c.Locals("user_id").(string)
		}
		photo, err := svc.AddPhoto(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(photo)
	})

	r.Get("/trips/:id/photos", func(c *fiber.Ctx) error {
		photos, err := svc.Photos(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(photos)
	})

	r.Delete("/photos/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeletePhoto(c.Context(), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
