package handlers

import (
	"greened-backend/middleware"
	"greened-backend/services"

	"github.com/gofiber/fiber/v2"
)

// SetupContentRoutes mounts the localized catalogue reads and certifications.
func SetupContentRoutes(r Routers, content *services.ContentService, certs *services.CertificationService) {
	r.Public.Get("/modules", func(c *fiber.Ctx) error {
		rows, err := content.Modules(c.UserContext(), middleware.LangFrom(c))
		if err != nil {
			return respondError(c, "failed to load modules", err)
		}
		return c.JSON(rows)
	})

	r.Public.Get("/modules/:id", func(c *fiber.Ctx) error {
		m, err := content.Module(c.UserContext(), c.Params("id"), middleware.LangFrom(c))
		if err != nil {
			return respondError(c, "failed to load module", err)
		}
		return c.JSON(m)
	})

	r.Public.Get("/modules/:id/quiz", func(c *fiber.Ctx) error {
		q, err := content.QuizForModule(c.UserContext(), c.Params("id"), middleware.LangFrom(c))
		if err != nil {
			return respondError(c, "failed to load quiz", err)
		}
		return c.JSON(q)
	})

	r.Public.Get("/challenges", func(c *fiber.Ctx) error {
		rows, err := content.Challenges(c.UserContext(), c.Query("category"), middleware.LangFrom(c))
		if err != nil {
			return respondError(c, "failed to load challenges", err)
		}
		return c.JSON(rows)
	})

	r.Public.Get("/challenges/:id", func(c *fiber.Ctx) error {
		ch, err := content.Challenge(c.UserContext(), c.Params("id"), middleware.LangFrom(c))
		if err != nil {
			return respondError(c, "failed to load challenge", err)
		}
		return c.JSON(ch)
	})

	r.Public.Get("/certifications/verify/:code", func(c *fiber.Ctx) error {
		cert, err := certs.Verify(c.UserContext(), c.Params("code"))
		if err != nil {
			return respondError(c, "certification lookup failed", err)
		}
		return c.JSON(cert)
	})

	r.Secured.Get("/certifications", func(c *fiber.Ctx) error {
		rows, err := certs.ListForUser(c.UserContext(), middleware.SessionFrom(c))
		if err != nil {
			return respondError(c, "failed to load certifications", err)
		}
		return c.JSON(rows)
	})
}
