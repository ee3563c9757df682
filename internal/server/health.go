package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// healthHandler reports liveness together with basic runtime and host figures.
func (s *Server) healthHandler(c echo.Context) error {
	stats := s.gateway.Stats()

	resp := map[string]interface{}{
		"status": "online",
		"runtime": map[string]interface{}{
			"uptime":     time.Since(s.startTime).Round(time.Second).String(),
			"start_time": s.startTime.Format(time.RFC3339),
		},
		"gateway": map[string]interface{}{
			"model":                stats.Model,
			"cached_translations":  stats.CachedTranslations,
			"active_chat_sessions": s.sessions.Len(),
		},
	}

	// Host figures are best effort; the endpoint stays up without them.
	if hInfo, err := host.Info(); err == nil {
		resp["host"] = map[string]interface{}{
			"os":       hInfo.OS,
			"platform": hInfo.Platform,
			"arch":     hInfo.KernelArch,
			"hostname": hInfo.Hostname,
		}
	}
	if v, err := mem.VirtualMemory(); err == nil {
		resp["memory"] = map[string]interface{}{
			"total_gb":     fmt.Sprintf("%.2f GB", float64(v.Total)/1024/1024/1024),
			"used_percent": fmt.Sprintf("%.2f%%", v.UsedPercent),
		}
	}
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		resp["cpu"] = map[string]interface{}{
			"usage_percent": fmt.Sprintf("%.2f%%", pct[0]),
		}
	}

	return c.JSON(http.StatusOK, resp)
}
