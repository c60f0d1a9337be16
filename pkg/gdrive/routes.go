package gdrive

import (
	"github.com/gofiber/fiber/v2"
)

// connectedHTML closes the OAuth popup after a successful exchange.
const connectedHTML = `<!DOCTYPE html>
<html>
<head><title>JetBot - Connected</title></head>
<body style="font-family: -apple-system, sans-serif; text-align: center; padding-top: 20vh;">
  <h1>Google Drive connected</h1>
  <p>Training photos will sync on demand. You can close this window.</p>
  <script>setTimeout(function() { window.close(); }, 3000);</script>
</body>
</html>
`

// RegisterRoutes adds the OAuth flow endpoints to a Fiber app.
func (c *Client) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/gdrive")

	api.Get("/status", func(ctx *fiber.Ctx) error {
		return ctx.JSON(c.GetStatus())
	})

	api.Get("/auth", func(ctx *fiber.Ctx) error {
		return ctx.Redirect(c.GetAuthURL(), fiber.StatusTemporaryRedirect)
	})

	api.Get("/callback", func(ctx *fiber.Ctx) error {
		code := ctx.Query("code")
		if code == "" {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing authorization code"})
		}
		if err := c.HandleCallback(code); err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		ctx.Type("html")
		return ctx.SendString(connectedHTML)
	})

	api.Post("/disconnect", func(ctx *fiber.Ctx) error {
		if err := c.Disconnect(); err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return ctx.JSON(fiber.Map{"success": true})
	})
}
