package middleware

import (
	"greened-backend/services"
	"greened-backend/utils"

	"github.com/gofiber/fiber/v2"
)

const langKey = "lang"

// Locale negotiates the content language from ?lang= and Accept-Language.
func Locale() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lang := utils.PreferredLanguage(c.Query("lang"), c.Get(fiber.HeaderAcceptLanguage))
		c.Locals(langKey, services.Lang(lang))
		c.Set(fiber.HeaderContentLanguage, lang)
		return c.Next()
	}
}

// LangFrom returns the negotiated language, English when Locale did not run.
func LangFrom(c *fiber.Ctx) services.Lang {
	if lang, ok := c.Locals(langKey).(services.Lang); ok {
		return lang
	}
	return services.LangEnglish
}
