package profiling

import (
	"net/http"
	"net/http/pprof"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
)

const bytesPerMB = 1024 * 1024

// RegisterRoutes exposes pprof under /debug/pprof and a runtime snapshot at
// /debug/runtime. These routes sit outside the API prefix, so callers must only
// enable them on trusted listeners.
func RegisterRoutes(e *echo.Echo) {
	g := e.Group("/debug")
	g.GET("/runtime", func(c echo.Context) error {
		return c.JSON(http.StatusOK, ReadRuntimeStats())
	})

	p := g.Group("/pprof")
	p.GET("/", echo.WrapHandler(http.HandlerFunc(pprof.Index)))
	p.GET("/cmdline", echo.WrapHandler(http.HandlerFunc(pprof.Cmdline)))
	p.GET("/profile", echo.WrapHandler(http.HandlerFunc(pprof.Profile)))
	p.GET("/symbol", echo.WrapHandler(http.HandlerFunc(pprof.Symbol)))
	p.GET("/trace", echo.WrapHandler(http.HandlerFunc(pprof.Trace)))
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		p.GET("/"+name, echo.WrapHandler(pprof.Handler(name)))
	}
}

// RuntimeStats is a point-in-time view of the process. Enforcement holds the
// whole policy set in memory, so heap size tracks the number of stored rules.
type RuntimeStats struct {
	AllocMB     float64 `json:"alloc_mb"`
	SysMB       float64 `json:"sys_mb"`
	HeapInUseMB float64 `json:"heap_in_use_mb"`
	HeapObjects uint64  `json:"heap_objects"`
	NumGC       uint32  `json:"num_gc"`
	Goroutines  int     `json:"goroutines"`
	Timestamp   string  `json:"timestamp"`
}

func ReadRuntimeStats() RuntimeStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return RuntimeStats{
		AllocMB:     float64(m.Alloc) / bytesPerMB,
		SysMB:       float64(m.Sys) / bytesPerMB,
		HeapInUseMB: float64(m.HeapInuse) / bytesPerMB,
		HeapObjects: m.HeapObjects,
		NumGC:       m.NumGC,
		Goroutines:  runtime.NumGoroutine(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}
