package bench

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticRing builds a (samples+1)-entry ring (reserved origin at index 0,
// plus samples entries) where cumulative requests grow by exactly perSample
// every period. With 100 samples, 100ms and 10 per sample it mirrors the S4
// scenario in the testable-properties section.
func syntheticRing(samples int, period time.Duration, perSample uint64) []Sample {
	base := time.Unix(0, 0)
	ring := make([]Sample, 0, samples+1)
	ring = append(ring, Sample{Index: 0, Taken: base})
	for i := 1; i <= samples; i++ {
		ring = append(ring, Sample{
			Index:      i,
			Taken:      base.Add(time.Duration(i) * period),
			Requests:   perSample * uint64(i),
			BytesSent:  0,
			BytesRecv:  0,
			LatencyCum: time.Duration(i) * time.Millisecond,
		})
	}
	return ring
}

func TestSummarizeDiscardsFirstAndLastSample(t *testing.T) {
	ring := syntheticRing(100, 100*time.Millisecond, 10)
	require.Len(t, ring, 101)

	summary := Summarize(ring, 10)
	assert.Equal(t, 99, summary.Samples)
	assert.InDelta(t, 100.0, summary.RequestsPerSecond, 0.01)
}

func TestSummarizeEmptyRing(t *testing.T) {
	summary := Summarize(nil, 10)
	assert.Equal(t, 0, summary.Samples)
}

func TestSamplesPerSecond(t *testing.T) {
	cfg := SamplerConfig{SamplePeriod: 100 * time.Millisecond}
	assert.Equal(t, 10, cfg.SamplesPerSecond())

	cfg2 := SamplerConfig{}
	assert.Equal(t, 1, cfg2.SamplesPerSecond())
}

func TestPrintSampleLineEmitsHeaderEveryTwentyTwoRows(t *testing.T) {
	var buf fakeWriter
	ring := syntheticRing(2, 100*time.Millisecond, 10)
	printedRows := 0

	printSampleLine(&buf, ring[:2], &printedRows)
	assert.Contains(t, buf.String(), "SAMPLE")
	assert.Equal(t, 1, printedRows)

	for i := 0; i < 22; i++ {
		printSampleLine(&buf, ring[:2], &printedRows)
	}
	assert.Equal(t, 2, strings.Count(buf.String(), "SAMPLE\t"))
	assert.Equal(t, 23, printedRows)
}

type fakeWriter struct {
	data []byte
}

func (f *fakeWriter) Write(p []byte) (int, error) {
	f.data = append(f.data, p...)
	return len(p), nil
}

func (f *fakeWriter) String() string {
	return string(f.data)
}
