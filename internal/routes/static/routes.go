package static

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
)

// staticHandler serves static files.
func staticHandler(dir string) fiber.Handler {
	return filesystem.New(filesystem.Config{
		Root:   http.Dir(dir),
		Browse: false,
	})
}

func SetupRoutes(app *fiber.App, dir string) {
	app.Use("/static", staticHandler(dir))
}
