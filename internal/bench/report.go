package bench

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/marmos91/nfsbench/internal/logger"
)

// rawHeader and rawRow mirror the original tool's raw sample table header: one row
// per sample (excluding the reserved origin and the final short interval,
// the same trim Summarize applies), columns in microseconds/bytes.
const rawHeader = "# %8s %10s %10s %8s %8s %10s %10s\n"
const rawRow = "  %8d %10d %10d %8d %8d %10d %10d\n"

// WriteRawLog writes the tab/space-separated raw sample table to
// <dir>/raw, with header comments recording creation time and sample
// period, matching the original tool's reporter output.
func WriteRawLog(dir string, ring []Sample, period time.Duration) error {
	if len(ring) < 3 {
		return fmt.Errorf("bench: raw log needs at least 3 ring entries, got %d", len(ring))
	}
	path := filepath.Join(dir, "raw")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create raw log: %w", err)
	}
	defer func() { _ = f.Close() }()

	trimmed := ring[1 : len(ring)-1]

	fmt.Fprintf(f, "# Created on %s\n", time.Now().Format(time.RFC1123))
	fmt.Fprintf(f, "# %d samples\n", len(trimmed))
	fmt.Fprintf(f, "# %d microsecond sample period\n", period.Microseconds())
	fmt.Fprintln(f, "# time, duration, and latency in microseconds; send and recv in bytes")
	fmt.Fprintln(f, "#")
	fmt.Fprintf(f, rawHeader, "SAMPLE", "TIME", "DURATION", "LATENCY", "OPS", "SEND", "RECV")

	origin := ring[0].Taken
	for i := 0; i < len(trimmed); i++ {
		cur := trimmed[i]
		prev := ring[0]
		if i > 0 {
			prev = trimmed[i-1]
		}

		ops := cur.Requests - prev.Requests
		var latencyUS int64
		if ops > 0 {
			latencyUS = int64(cur.LatencyCum-prev.LatencyCum) / int64(ops) / int64(time.Microsecond)
		}

		fmt.Fprintf(f, rawRow,
			cur.Index,
			cur.Taken.Sub(origin).Microseconds(),
			cur.Taken.Sub(prev.Taken).Microseconds(),
			latencyUS,
			ops,
			cur.BytesSent-prev.BytesSent,
			cur.BytesRecv-prev.BytesRecv,
		)
	}
	return nil
}

// gnuplotMetric describes one of the four plots the original tool emits.
type gnuplotMetric struct {
	name   string
	using  string
	ylabel string
	color  string
}

var gnuplotMetrics = []gnuplotMetric{
	{name: "recv", using: "($2/1e6):($7/(1024*1024))", ylabel: "MB / second", color: "green"},
	{name: "send", using: "($2/1e6):($6/(1024*1024))", ylabel: "MB / second", color: "red"},
	{name: "latency", using: "($2/1e6):($4)", ylabel: "usec/request", color: "black"},
	{name: "requests", using: "($2/1e6):($5)", ylabel: "requests/second", color: "blue"},
}

// WriteGnuplotScripts writes one <metric>.gnuplot script per metric
// (recv, send, latency, requests) into dir, each plotting its column out of
// the raw file against elapsed seconds.
func WriteGnuplotScripts(dir, term string) error {
	if term == "" {
		term = "png"
	}
	for _, m := range gnuplotMetrics {
		path := filepath.Join(dir, m.name+".gnuplot")
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s.gnuplot: %w", m.name, err)
		}
		fmt.Fprintf(f, "# Created on %s\n", time.Now().Format(time.RFC1123))
		fmt.Fprintf(f, "set title %q\n", m.name)
		fmt.Fprintf(f, "set output '%s.%s'\n", m.name, term)
		fmt.Fprintf(f, "set term %s size 1920,640\n", term)
		fmt.Fprintln(f, "set autoscale")
		fmt.Fprintln(f, "set grid")
		fmt.Fprintf(f, "set ylabel %q\n", m.ylabel)
		fmt.Fprintln(f, "set xlabel \"seconds\"")
		fmt.Fprintf(f, "plot 'raw' using %s with lines lc rgb %q title %q\n", m.using, m.color, m.name)
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s.gnuplot: %w", m.name, err)
		}
	}
	return nil
}

// RunGnuplot invokes gnuplot on each emitted script from within dir. Failure
// is logged and reported but non-fatal, matching the original tool's
// "best effort" plotting behavior.
func RunGnuplot(dir string) {
	for _, m := range gnuplotMetrics {
		cmd := exec.Command("gnuplot", m.name+".gnuplot")
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			logger.Warn("gnuplot invocation failed", "metric", m.name, "error", err, "output", string(out))
		}
	}
}

// PrintSummaryTable renders the final MIN/AVG/MAX/TOTAL summary to w, in the
// same spirit as the original tool's closing printf block, via the same
// tablewriter style the rest of this program's CLI output uses.
func PrintSummaryTable(w io.Writer, ring []Sample, s Summary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"MIN", "AVG", "MAX", "TOTAL", "DESC"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetTablePadding("  ")

	sendMin, sendMax, recvMin, recvMax, opsMin, opsMax := perSampleExtremes(ring)

	table.Append([]string{
		fmt.Sprintf("%d", sendMin), fmt.Sprintf("%.0f", s.SentBytesPerSecond), fmt.Sprintf("%d", sendMax),
		fmt.Sprintf("%d", s.TotalBytesSent), "bytes transmitted per second",
	})
	table.Append([]string{
		fmt.Sprintf("%d", recvMin), fmt.Sprintf("%.0f", s.RecvBytesPerSecond), fmt.Sprintf("%d", recvMax),
		fmt.Sprintf("%d", s.TotalBytesRecv), "bytes received per second",
	})
	table.Append([]string{
		fmt.Sprintf("%d", s.LatencyMin.Microseconds()), fmt.Sprintf("%.1f", float64(s.LatencyAvg.Microseconds())),
		fmt.Sprintf("%d", s.LatencyMax.Microseconds()), fmt.Sprintf("%d", s.Elapsed.Microseconds()), "latency per request (usec)",
	})
	table.Append([]string{
		fmt.Sprintf("%d", opsMin), fmt.Sprintf("%.0f", s.RequestsPerSecond), fmt.Sprintf("%d", opsMax),
		fmt.Sprintf("%d", s.TotalRequests), "requests per second",
	})
	table.Append([]string{"-", "-", "-", fmt.Sprintf("%d", s.Samples), "samples"})

	table.Render()
}

// perSampleExtremes computes the min/max per-interval deltas over the
// trimmed ring, for the summary table's MIN/MAX columns.
func perSampleExtremes(ring []Sample) (sendMin, sendMax, recvMin, recvMax, opsMin, opsMax uint64) {
	if len(ring) < 3 {
		return
	}
	trimmed := ring[1 : len(ring)-1]
	if len(trimmed) < 2 {
		return
	}

	sendMin, recvMin, opsMin = ^uint64(0), ^uint64(0), ^uint64(0)
	for i := 1; i < len(trimmed); i++ {
		cur, prev := trimmed[i], trimmed[i-1]
		send := cur.BytesSent - prev.BytesSent
		recv := cur.BytesRecv - prev.BytesRecv
		ops := cur.Requests - prev.Requests

		if send < sendMin {
			sendMin = send
		}
		if send > sendMax {
			sendMax = send
		}
		if recv < recvMin {
			recvMin = recv
		}
		if recv > recvMax {
			recvMax = recv
		}
		if ops < opsMin {
			opsMin = ops
		}
		if ops > opsMax {
			opsMax = ops
		}
	}
	if sendMin == ^uint64(0) {
		sendMin = 0
	}
	if recvMin == ^uint64(0) {
		recvMin = 0
	}
	if opsMin == ^uint64(0) {
		opsMin = 0
	}
	return
}
