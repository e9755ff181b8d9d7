package bench

import (
	"fmt"
	"io"
	"time"

	"github.com/marmos91/nfsbench/internal/metrics"
	"github.com/marmos91/nfsbench/internal/pacer"
)

// Sample is one entry in the sample ring: a snapshot of the shared Stats
// record plus the wall-clock time it was taken.
type Sample struct {
	Index      int
	Taken      time.Time
	Requests   uint64
	BytesSent  uint64
	BytesRecv  uint64
	LatencyCum time.Duration
	LatencyMin time.Duration
	LatencyMax time.Duration
}

// SamplerConfig parameterizes the fixed-cadence sampler loop.
type SamplerConfig struct {
	SamplePeriod time.Duration // default 100ms
	MarkSeconds  int           // 0 disables periodic printing
	Duration     time.Duration
	Out          io.Writer // status lines; nil disables printing entirely
}

// SamplesPerSecond returns how many samples the configured period yields in
// one second, at least 1.
func (c SamplerConfig) SamplesPerSecond() int {
	if c.SamplePeriod <= 0 {
		return 1
	}
	n := int(time.Second / c.SamplePeriod)
	if n < 1 {
		n = 1
	}
	return n
}

// RunSampler drives the fixed-cadence sampling loop against m until
// ActiveJobs reads zero: checked on every tick when MarkSeconds == 0, and
// otherwise only on ticks that print a status line. The configured duration
// only sizes the ring; samples taken once it is full are not kept. It
// returns the sample ring, including the reserved origin record at index 0.
func RunSampler(m *Mount, clock pacer.Clock, cfg SamplerConfig) []Sample {
	if cfg.SamplePeriod <= 0 {
		cfg.SamplePeriod = 100 * time.Millisecond
	}
	capacity := int(cfg.Duration/cfg.SamplePeriod) + 1
	if capacity < 2 {
		capacity = 2
	}

	ring := make([]Sample, 0, capacity)
	ring = append(ring, Sample{Index: 0, Taken: clock.Now()})

	ticker := pacer.NewTicker(clock, cfg.SamplePeriod)
	markPeriod := time.Duration(cfg.MarkSeconds) * time.Second
	lastPrint := clock.Now()
	printedRows := 0

	for {
		ticker.Wait()

		snap := m.Stats.Snapshot()
		metrics.Get().SetInFlight(m.Table.Len())
		sample := Sample{
			Index:      len(ring),
			Taken:      clock.Now(),
			Requests:   snap.Requests,
			BytesSent:  snap.BytesSent,
			BytesRecv:  snap.BytesRecv,
			LatencyCum: snap.LatencyCum,
			LatencyMin: snap.LatencyMin,
			LatencyMax: snap.LatencyMax,
		}
		if len(ring) < capacity {
			ring = append(ring, sample)
		}

		if cfg.MarkSeconds == 0 {
			if m.ActiveJobs.Load() == 0 {
				break
			}
			continue
		}

		now := clock.Now()
		if now.Sub(lastPrint) < markPeriod {
			continue
		}
		printSampleLine(cfg.Out, ring, &printedRows)
		lastPrint = now

		if m.ActiveJobs.Load() == 0 {
			break
		}
	}

	return ring
}

// printSampleLine prints one status row, re-emitting the column header
// every 22 rows, computed from the delta between the last two ring entries.
func printSampleLine(out io.Writer, ring []Sample, printedRows *int) {
	if out == nil || len(ring) < 2 {
		return
	}
	cur := ring[len(ring)-1]
	prev := ring[len(ring)-2]

	if *printedRows%22 == 0 {
		fmt.Fprintln(out, "SAMPLE\tINTERVAL_US\tOPS\tMB/S_SENT\tMB/S_RECV\tLAT_MIN_US\tLAT_AVG_US\tLAT_MAX_US")
	}

	interval := cur.Taken.Sub(prev.Taken)
	ops := cur.Requests - prev.Requests
	bytesSent := cur.BytesSent - prev.BytesSent
	bytesRecv := cur.BytesRecv - prev.BytesRecv

	var avgLatencyUS float64
	if ops > 0 {
		avgLatencyUS = float64(cur.LatencyCum-prev.LatencyCum) / float64(ops) / float64(time.Microsecond)
	}

	mbSent := megabytesPerSecond(bytesSent, interval)
	mbRecv := megabytesPerSecond(bytesRecv, interval)

	fmt.Fprintf(out, "%d\t%d\t%d\t%.3f\t%.3f\t%d\t%.1f\t%d\n",
		cur.Index, interval.Microseconds(), ops, mbSent, mbRecv,
		cur.LatencyMin.Microseconds(), avgLatencyUS, cur.LatencyMax.Microseconds())

	*printedRows++
}

func megabytesPerSecond(bytes uint64, interval time.Duration) float64 {
	if interval <= 0 {
		return 0
	}
	return (float64(bytes) / (1024 * 1024)) / interval.Seconds()
}

// Summarize computes whole-run rates (requests and bytes per second) and the
// average latency between the first and last retained samples, skipping the
// reserved origin record at index 0 and the final (possibly short) interval.
// samplesPerSecond is only recorded in the Summary; no per-second running
// averages are computed.
func Summarize(ring []Sample, samplesPerSecond int) Summary {
	if samplesPerSecond < 1 {
		samplesPerSecond = 1
	}
	if len(ring) < 3 {
		return Summary{}
	}

	trimmed := ring[1 : len(ring)-1]
	if len(trimmed) < 2 {
		return Summary{}
	}

	first := trimmed[0]
	last := trimmed[len(trimmed)-1]

	totalRequests := last.Requests - first.Requests
	totalSent := last.BytesSent - first.BytesSent
	totalRecv := last.BytesRecv - first.BytesRecv
	elapsed := last.Taken.Sub(first.Taken)

	var latMin, latMax time.Duration = time.Duration(1<<63 - 1), 0
	for _, s := range trimmed {
		if s.LatencyMin > 0 && s.LatencyMin < latMin {
			latMin = s.LatencyMin
		}
		if s.LatencyMax > latMax {
			latMax = s.LatencyMax
		}
	}
	if latMin == time.Duration(1<<63-1) {
		latMin = 0
	}

	summary := Summary{
		Samples:          len(trimmed),
		TotalRequests:    totalRequests,
		TotalBytesSent:   totalSent,
		TotalBytesRecv:   totalRecv,
		Elapsed:          elapsed,
		LatencyMin:       latMin,
		LatencyMax:       latMax,
		SamplesPerSecond: samplesPerSecond,
	}
	if elapsed > 0 {
		summary.RequestsPerSecond = float64(totalRequests) / elapsed.Seconds()
		summary.SentBytesPerSecond = float64(totalSent) / elapsed.Seconds()
		summary.RecvBytesPerSecond = float64(totalRecv) / elapsed.Seconds()
	}
	if totalRequests > 0 {
		cumLatency := last.LatencyCum - first.LatencyCum
		summary.LatencyAvg = time.Duration(int64(cumLatency) / int64(totalRequests))
	}
	return summary
}

// Summary is the final end-of-run report, the numbers printed in the stdout
// summary table.
type Summary struct {
	Samples            int
	TotalRequests      uint64
	TotalBytesSent     uint64
	TotalBytesRecv     uint64
	Elapsed            time.Duration
	RequestsPerSecond  float64
	SentBytesPerSecond float64
	RecvBytesPerSecond float64
	LatencyMin         time.Duration
	LatencyAvg         time.Duration
	LatencyMax         time.Duration
	SamplesPerSecond   int
}
