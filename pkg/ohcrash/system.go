// system.go snapshots process metrics for reports.

package ohcrash

import (
	"os"
	"runtime"
	"sync"
	"time"
)

// processStart stands in for the process start time when no client is involved.
var processStart = time.Now()

// hostName is looked up once; an unknown host name is reported as empty.
var hostName = sync.OnceValue(func() string {
	name, err := os.Hostname()
	if err != nil {
		return ""
	}
	return name
})

// CaptureSystemState reads heap usage, goroutine count and the time elapsed
// since start. Uptime never goes negative.
func CaptureSystemState(start time.Time) *SystemState {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return &SystemState{
		MemoryBytes:    int64(mem.Alloc),
		GoroutineCount: runtime.NumGoroutine(),
		UptimeMs:       max(time.Since(start).Milliseconds(), 0),
		HostName:       hostName(),
	}
}
