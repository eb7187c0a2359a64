// Package openapi serves a Swagger UI for the admin API. The spec itself is
// generated at runtime by huma and served at /openapi.json.
package openapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>b24-dealsync admin API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "/openapi.json",
      dom_id: "#swagger-ui",
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: "BaseLayout",
    });
  </script>
</body>
</html>`

// RegisterRoutes adds the Swagger UI endpoints to the Echo instance.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/swagger/index.html", serveUI)
	e.GET("/swagger", redirectToUI)
	e.GET("/swagger/", redirectToUI)
}

func serveUI(c echo.Context) error {
	return c.HTML(http.StatusOK, swaggerUIHTML)
}

func redirectToUI(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
}
