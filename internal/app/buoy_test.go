package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"

	"github.com/relabs-tech/wavebuoy/internal/axl"
	"github.com/relabs-tech/wavebuoy/internal/config"
	"github.com/relabs-tech/wavebuoy/internal/imu"
	"github.com/relabs-tech/wavebuoy/internal/note"
	"github.com/relabs-tech/wavebuoy/internal/zaplog"
)

type sliceFIFO struct {
	samples []imu.IMURaw
	overrun bool
	cleared int
}

func (f *sliceFIFO) Read(dst []imu.IMURaw) (int, error) {
	if f.overrun {
		return 0, imu.ErrOverrun
	}
	n := copy(dst, f.samples)
	f.samples = f.samples[n:]
	return n, nil
}

func (f *sliceFIFO) Clear() {
	f.samples = nil
	f.overrun = false
	f.cleared++
}

func (f *sliceFIFO) push(n int) {
	for i := 0; i < n; i++ {
		f.samples = append(f.samples, imu.IMURaw{Az: 16384})
	}
}

type fixedCard struct{ time uint32 }

func (c fixedCard) Location(context.Context) (note.LocationFix, error) {
	lat, lon, pt := 59.9, 10.7, c.time
	return note.LocationFix{Lat: &lat, Lon: &lon, Time: &pt}, nil
}

func (c fixedCard) Time(context.Context) (note.TimeFix, error) {
	tm := c.time
	return note.TimeFix{Time: &tm}, nil
}

type brokenCard struct{}

func (brokenCard) Location(context.Context) (note.LocationFix, error) {
	return note.LocationFix{}, errors.New("gps read: EOF")
}

func (brokenCard) Time(context.Context) (note.TimeFix, error) {
	return note.TimeFix{}, errors.New("gps read: EOF")
}

func testConfig(t *testing.T, withStorage bool) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.IMU.Mock = true
	cfg.IMU.Decimate = 1
	cfg.IMU.Taps = 3
	cfg.Queue.Capacity = 4
	cfg.Storage.Enabled = withStorage
	cfg.Storage.Dir = t.TempDir()
	cfg.Storage.PackagesPerFile = 2
	return cfg
}

func TestStepWithStorage(t *testing.T) {
	fifo := &sliceFIFO{}
	fifo.push(axl.SampleSz*2 + 10)
	b, err := NewBuoy(testConfig(t, true), Deps{
		Clock: clock.NewMock(),
		FIFO:  fifo,
		Card:  fixedCard{time: 1_700_000_000},
	}, zaptest.NewLogger(t))
	test.That(t, err, test.ShouldBeNil)

	b.Step(context.Background())
	test.That(t, b.Location.Retrieved(), test.ShouldBeTrue)

	pcks, err := b.storage.ReadCollection(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pcks, test.ShouldHaveLength, 1)
	test.That(t, pcks[0].Timestamp, test.ShouldEqual, int64(1_700_000_000_000))
	test.That(t, pcks[0].Lat, test.ShouldEqual, 59.9)
	test.That(t, *pcks[0].StorageID, test.ShouldEqual, uint32(0))

	tx, free := b.TxQueue()
	test.That(t, free, test.ShouldBeTrue)
	test.That(t, tx.Len(), test.ShouldEqual, 1)

	b.Step(context.Background())
	b.Step(context.Background())
	test.That(t, tx.Len(), test.ShouldEqual, 2)
	test.That(t, b.storage.CurrentID(), test.ShouldEqual, uint32(1))

	snap, ok := b.Status.Get()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, snap.Fix, test.ShouldBeTrue)
	test.That(t, snap.StorageID, test.ShouldEqual, uint32(1))
	test.That(t, snap.TxQueue, test.ShouldEqual, 2)
	test.That(t, snap.Buffered, test.ShouldEqual, 10)
}

func TestStepWithoutStorage(t *testing.T) {
	fifo := &sliceFIFO{}
	b, err := NewBuoy(testConfig(t, false), Deps{Clock: clock.NewMock(), FIFO: fifo}, zaptest.NewLogger(t))
	test.That(t, err, test.ShouldBeNil)

	tx, _ := b.TxQueue()
	for i := 0; i < 5; i++ {
		fifo.push(axl.SampleSz)
		b.Step(context.Background())
	}
	// Capacity 4, the fifth segment is dropped.
	test.That(t, tx.Len(), test.ShouldEqual, 4)
	p, ok := tx.Dequeue()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, p.Timestamp, test.ShouldEqual, int64(0))
	test.That(t, b.Location.Retrieved(), test.ShouldBeFalse)
}

func TestStepResetsOnSensorError(t *testing.T) {
	fifo := &sliceFIFO{}
	fifo.push(100)
	b, err := NewBuoy(testConfig(t, false), Deps{Clock: clock.NewMock(), FIFO: fifo}, zaptest.NewLogger(t))
	test.That(t, err, test.ShouldBeNil)
	b.imu.FIFODelay = 0

	b.Step(context.Background())
	test.That(t, b.waves.Len(), test.ShouldEqual, 100)

	fifo.overrun = true
	b.Step(context.Background())
	test.That(t, fifo.cleared, test.ShouldEqual, 2)
	test.That(t, fifo.overrun, test.ShouldBeFalse)
	test.That(t, b.waves.Len(), test.ShouldEqual, 0)
}

func TestWebStatus(t *testing.T) {
	status := &Status{}
	srv := httptest.NewServer(NewWebHandler(status, 10*time.Millisecond, true, zaptest.NewLogger(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/status")
	test.That(t, err, test.ShouldBeNil)
	resp.Body.Close()
	test.That(t, resp.StatusCode, test.ShouldEqual, http.StatusServiceUnavailable)

	status.Set(StatusSnapshot{Device: "b7", Lat: 59.9, Fix: true})
	resp, err = http.Get(srv.URL + "/api/status")
	test.That(t, err, test.ShouldBeNil)
	var snap StatusSnapshot
	test.That(t, json.NewDecoder(resp.Body).Decode(&snap), test.ShouldBeNil)
	resp.Body.Close()
	test.That(t, snap.Device, test.ShouldEqual, "b7")
	test.That(t, snap.Fix, test.ShouldBeTrue)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/status", nil)
	test.That(t, err, test.ShouldBeNil)
	defer conn.Close()
	var pushed StatusSnapshot
	test.That(t, conn.ReadJSON(&pushed), test.ShouldBeNil)
	test.That(t, pushed.Lat, test.ShouldEqual, 59.9)

	resp, err = http.Get(srv.URL + "/metrics")
	test.That(t, err, test.ShouldBeNil)
	resp.Body.Close()
	test.That(t, resp.StatusCode, test.ShouldEqual, http.StatusOK)
}

func TestRenderStatus(t *testing.T) {
	blank := renderStatus(StatusSnapshot{}, false)
	test.That(t, blank.Bounds().Dx(), test.ShouldEqual, 128)

	img := renderStatus(StatusSnapshot{Fix: true, Lat: -33.5, Lon: 151.2}, true)
	lit := 0
	for _, p := range img.Pix {
		if p != 0 {
			lit++
		}
	}
	test.That(t, lit, test.ShouldBeGreaterThan, 0)
}

func TestResetOpensEpoch(t *testing.T) {
	fifo := &sliceFIFO{}
	b, err := NewBuoy(testConfig(t, false), Deps{Clock: clock.NewMock(), FIFO: fifo}, zaptest.NewLogger(t))
	test.That(t, err, test.ShouldBeNil)
	b.imu.FIFODelay = 0

	test.That(t, b.imu.Reset(5000, 77, 1.5, 2.5), test.ShouldBeNil)
	fifo.push(axl.SampleSz)
	test.That(t, b.imu.Poll(9000, 88, 3.5, 4.5), test.ShouldBeNil)

	tx, _ := b.TxQueue()
	p, ok := tx.Dequeue()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, p.Started, test.ShouldEqual, int64(5000))
	test.That(t, p.Timestamp, test.ShouldEqual, int64(9000))
	test.That(t, p.PositionTime, test.ShouldEqual, uint32(88))
	test.That(t, p.Offset, test.ShouldEqual, uint16(0))

	fifo.push(axl.SampleSz)
	test.That(t, b.imu.Poll(12000, 88, 3.5, 4.5), test.ShouldBeNil)
	p, ok = tx.Dequeue()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, p.Started, test.ShouldEqual, int64(9000))
	test.That(t, p.Offset, test.ShouldEqual, uint16(axl.SampleSz))
}

func TestFixFailureWarnsOncePerCooldown(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	zaplog.SetLogger(zap.New(core))
	defer zaplog.SetLogger(nil)

	clk := clock.NewMock()
	// A nil logger falls back to the process logger.
	b, err := NewBuoy(testConfig(t, false), Deps{Clock: clk, FIFO: &sliceFIFO{}, Card: brokenCard{}}, nil)
	test.That(t, err, test.ShouldBeNil)

	for i := 0; i < 5; i++ {
		b.Step(context.Background())
		clk.Add(20 * time.Millisecond)
	}
	test.That(t, logs.FilterMessage("location check failed").Len(), test.ShouldEqual, 1)

	clk.Add(time.Minute)
	b.Step(context.Background())
	test.That(t, logs.FilterMessage("location check failed").Len(), test.ShouldEqual, 2)
	test.That(t, b.Location.Retrieved(), test.ShouldBeFalse)
}
