package app

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"github.com/relabs-tech/wavebuoy/internal/axl"
	"github.com/relabs-tech/wavebuoy/internal/storage"
)

func segmentPacket(end time.Time) *axl.Packet {
	data := make([]float32, axl.SampleSz*3)
	for i := 2; i < len(data); i += 3 {
		data[i] = 9.8
	}
	return &axl.Packet{Timestamp: end.UnixMilli(), Freq: 4, Lat: 59.9, Lon: 10.7, Data: data}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	s, err := storage.Open(dir, storage.NullClock{}, 2, zaptest.NewLogger(t))
	test.That(t, err, test.ShouldBeNil)

	t0 := time.Date(2024, 10, 15, 8, 0, 0, 0, time.UTC)
	seg := 256 * time.Second
	for _, end := range []time.Time{t0, t0.Add(seg), t0.Add(time.Hour)} {
		test.That(t, s.Store(segmentPacket(end)), test.ShouldBeNil)
	}

	c, err := LoadCollection(dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Len(), test.ShouldEqual, 3)

	var out bytes.Buffer
	n := WriteSegments(&out, c, time.Time{}, time.Time{}, axl.DefaultMaxGap)
	test.That(t, n, test.ShouldEqual, 2)
	test.That(t, out.String(), test.ShouldContainSubstring, "2024-10-15T08:00:00Z")

	out.Reset()
	test.That(t, WriteFile(&out, filepath.Join(dir, "00000000.axl")), test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldContainSubstring, "9.800")
	test.That(t, out.String(), test.ShouldContainSubstring, "59.90000")

	_, err = LoadCollection(t.TempDir())
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFormatSegment(t *testing.T) {
	p := segmentPacket(time.Date(2024, 10, 15, 8, 0, 0, 0, time.UTC))
	id := uint32(7)
	p.StorageID = &id
	line := formatSegment(p)
	test.That(t, line, test.ShouldStartWith, "[AXL    7] 2024-10-15T08:00:00Z")
	test.That(t, line, test.ShouldContainSubstring, "n=1024")
	test.That(t, line, test.ShouldContainSubstring, "z=9.800")
}
