// Package resource snapshots process CPU and memory around the solve
// cascade (spec.md §5 "Suspension / blocking"), the same shape as the
// teacher's system heartbeat monitor (internal/server/system_handlers.go's
// getSystemStats), but logged rather than served as its own endpoint —
// internal/server's /problem/stats exposes the Problem-side counters,
// this package exposes the host-side ones around a call.
package resource

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is a point-in-time reading of process-host CPU and memory use.
type Snapshot struct {
	CPUPercent float64
	MemPercent float64
	TakenAt    time.Time
}

// sampleWindow is how long cpu.Percent blocks gathering its reading.
// Kept short because Around calls it twice per solve, synchronously.
const sampleWindow = 100 * time.Millisecond

// Take samples current CPU and memory utilization. A failed gopsutil
// read degrades to a zero value rather than propagating an error —
// resource accounting is observability, never a reason to fail a solve.
func Take(log zerolog.Logger) Snapshot {
	snap := Snapshot{TakenAt: time.Now()}

	cpuPercent, err := cpu.Percent(sampleWindow, false)
	if err != nil {
		log.Warn().Err(err).Msg("resource: failed to sample cpu percent")
	} else if len(cpuPercent) > 0 {
		snap.CPUPercent = cpuPercent[0]
	}

	vmem, err := mem.VirtualMemory()
	if err != nil {
		log.Warn().Err(err).Msg("resource: failed to sample memory")
	} else {
		snap.MemPercent = vmem.UsedPercent
	}

	return snap
}

// Around runs fn, logging a before/after CPU and memory snapshot plus
// elapsed wall time at the given log level. Used to bracket the solve
// cascade (Assembly.Update followed by Problem.Solve) so an operator can
// see whether a slow solve is resource-starved or algorithmically slow.
func Around(log zerolog.Logger, label string, fn func() error) error {
	before := Take(log)
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	after := Take(log)

	ev := log.Info()
	if err != nil {
		ev = log.Warn().Err(err)
	}
	ev.Str("label", label).
		Dur("elapsed", elapsed).
		Float64("cpu_before", before.CPUPercent).
		Float64("cpu_after", after.CPUPercent).
		Float64("mem_before", before.MemPercent).
		Float64("mem_after", after.MemPercent).
		Msg("resource: bracketed run")

	return err
}
