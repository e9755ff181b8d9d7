package bench

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWriteRawLogEmitsNinetyNineRowsWithTenOpsEach pins the S4 scenario: 100
// samples at 100ms period growing by exactly 10 requests each must produce
// 99 data rows in the raw log, each with OPS == 10.
func TestWriteRawLogEmitsNinetyNineRowsWithTenOpsEach(t *testing.T) {
	ring := syntheticRing(100, 100*time.Millisecond, 10)
	dir := t.TempDir()

	require.NoError(t, WriteRawLog(dir, ring, 100*time.Millisecond))

	f, err := os.Open(filepath.Join(dir, "raw"))
	require.NoError(t, err)
	defer f.Close()

	var dataRows []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		dataRows = append(dataRows, line)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, dataRows, 99)

	for _, row := range dataRows {
		fields := strings.Fields(row)
		require.Len(t, fields, 7)
		ops, err := strconv.ParseUint(fields[4], 10, 64)
		require.NoError(t, err)
		assert.EqualValues(t, 10, ops)
	}
}

func TestWriteRawLogRejectsShortRing(t *testing.T) {
	dir := t.TempDir()
	err := WriteRawLog(dir, []Sample{{}}, time.Millisecond)
	assert.Error(t, err)
}

func TestWriteGnuplotScriptsCreatesOneFilePerMetric(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteGnuplotScripts(dir, "png"))

	for _, name := range []string{"recv", "send", "latency", "requests"} {
		path := filepath.Join(dir, name+".gnuplot")
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "plot 'raw'")
	}
}

func TestPrintSummaryTableRendersWithoutPanicking(t *testing.T) {
	ring := syntheticRing(100, 100*time.Millisecond, 10)
	summary := Summarize(ring, 10)

	var out strings.Builder
	assert.NotPanics(t, func() {
		PrintSummaryTable(&out, ring, summary)
	})
	assert.Contains(t, out.String(), "requests per second")
}
