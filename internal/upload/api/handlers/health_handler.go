package handlers

import (
	"fmt"
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

var startTime = time.Now()

// HealthHandler 系統與程序健康資訊
type HealthHandler struct {
	Environment string
}

// Health 返回系統負載、記憶體與程序資訊
// @Summary System and application health
// @Tags Shared
// @Success 200 {object} fiber.Map
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	system := fiber.Map{}
	if avg, err := load.Avg(); err == nil {
		system["cpuUsage"] = []float64{avg.Load1, avg.Load5, avg.Load15}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		system["totalMemory"] = fmt.Sprintf("%.2f MB", float64(vm.Total)/1024/1024)
		system["freeMemory"] = fmt.Sprintf("%.2f MB", float64(vm.Available)/1024/1024)
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	application := fiber.Map{
		"environment": h.Environment,
		"uptime":      fmt.Sprintf("%.2f seconds", time.Since(startTime).Seconds()),
		"memoryUsage": fiber.Map{
			"totalHeap": fmt.Sprintf("%.2f MB", float64(ms.HeapSys)/1024/1024),
			"usedHeap":  fmt.Sprintf("%.2f MB", float64(ms.HeapAlloc)/1024/1024),
		},
	}

	return c.JSON(fiber.Map{
		"systemHealth":      system,
		"applicationHealth": application,
		"timestamp":         time.Now().UTC(),
	})
}
