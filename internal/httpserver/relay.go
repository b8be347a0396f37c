package httpserver

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/ralvey/adpace/backend/internal/config"
)

// registerRelayRoute mounts the stateless pass-through to the upstream
// values API. It exists so browser consumers can read ranges without
// holding the API key origin-restricted; the relay adds permissive CORS
// and forwards the upstream status and body untouched.
func registerRelayRoute(fiberApp *fiber.App, cfg config.RelayConfig) {
	client := &http.Client{Timeout: cfg.Timeout}

	fiberApp.All("/api/sheets-proxy", func(c *fiber.Ctx) error {
		c.Set("Access-Control-Allow-Origin", "*")
		c.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Set("Access-Control-Allow-Headers", "Content-Type")

		switch c.Method() {
		case fiber.MethodOptions:
			return c.SendStatus(fiber.StatusOK)
		case fiber.MethodGet:
		default:
			return writeError(c, fiber.StatusMethodNotAllowed, "method not allowed")
		}

		spreadsheetID := c.Query("spreadsheetId")
		rangeName := c.Query("range")
		apiKey := c.Query("apiKey")
		if spreadsheetID == "" || rangeName == "" || apiKey == "" {
			return writeError(c, fiber.StatusBadRequest,
				"spreadsheetId, range, and apiKey query parameters are required")
		}

		upstream := fmt.Sprintf("%s/%s/values/%s?key=%s",
			cfg.UpstreamURL,
			url.PathEscape(spreadsheetID),
			url.PathEscape(rangeName),
			url.QueryEscape(apiKey))

		req, err := http.NewRequestWithContext(c.UserContext(), http.MethodGet, upstream, nil)
		if err != nil {
			return writeError(c, fiber.StatusBadGateway, "failed to build upstream request")
		}

		resp, err := client.Do(req)
		if err != nil {
			return writeError(c, fiber.StatusBadGateway, "upstream fetch failed")
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return writeError(c, fiber.StatusBadGateway, "upstream read failed")
		}

		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(resp.StatusCode).Send(body)
	})
}
