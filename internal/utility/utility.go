/*
Package utility holds small request and string helpers shared by both servers.
*/
package utility

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// GetRealIP is a helper function to get the caller's real IP address
// It checks proxy headers first.
func GetRealIP(c echo.Context) string {
	// 1. Check X-Forwarded-For first
	// This header can be a list: "client, proxy1, proxy2"
	xForwardedFor := c.Request().Header.Get("X-Forwarded-For")
	if xForwardedFor != "" {
		ips := strings.Split(xForwardedFor, ",")
		return strings.TrimSpace(ips[0])
	}

	// 2. Check X-Real-IP
	xRealIP := c.Request().Header.Get("X-Real-IP")
	if xRealIP != "" {
		return xRealIP
	}

	// 3. Fall back to the direct peer
	return c.RealIP()
}

// DigitsOnly strips every non-digit rune, e.g. "+1 (555) 010-9999" -> "15550109999".
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// Truncate shortens s to at most n bytes for log fields.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
