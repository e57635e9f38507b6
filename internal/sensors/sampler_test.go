package sensors

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"github.com/relabs-tech/wavebuoy/internal/imu"
)

type countingSource struct {
	n   int16
	err error
}

func (c *countingSource) ReadRaw() (imu.IMURaw, error) {
	if c.err != nil {
		return imu.IMURaw{}, c.err
	}
	c.n++
	return imu.IMURaw{Az: c.n}, nil
}

func TestSamplerRead(t *testing.T) {
	src := &countingSource{}
	s := NewSampler(src, clock.NewMock(), time.Millisecond, 8, zaptest.NewLogger(t))
	for i := 0; i < 5; i++ {
		s.sample()
	}
	test.That(t, s.Len(), test.ShouldEqual, 5)

	dst := make([]imu.IMURaw, 3)
	n, err := s.Read(dst)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 3)
	test.That(t, dst[0].Az, test.ShouldEqual, int16(1))
	test.That(t, dst[2].Az, test.ShouldEqual, int16(3))

	n, err = s.Read(dst)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 2)

	n, err = s.Read(dst)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 0)
}

func TestSamplerOverrun(t *testing.T) {
	s := NewSampler(&countingSource{}, clock.NewMock(), time.Millisecond, 4, zaptest.NewLogger(t))
	for i := 0; i < 6; i++ {
		s.sample()
	}
	_, err := s.Read(make([]imu.IMURaw, 4))
	test.That(t, errors.Is(err, imu.ErrOverrun), test.ShouldBeTrue)

	s.Clear()
	test.That(t, s.Len(), test.ShouldEqual, 0)
	s.sample()
	n, err := s.Read(make([]imu.IMURaw, 4))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 1)
}

func TestSamplerReadError(t *testing.T) {
	src := &countingSource{}
	s := NewSampler(src, clock.NewMock(), time.Millisecond, 4, zaptest.NewLogger(t))
	s.sample()
	src.err = errors.New("spi transfer failed")
	s.sample()

	_, err := s.Read(make([]imu.IMURaw, 4))
	test.That(t, err, test.ShouldNotBeNil)
	n, err := s.Read(make([]imu.IMURaw, 4))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 1)
}

func TestSamplerRun(t *testing.T) {
	mock := clock.NewMock()
	s := NewSampler(&countingSource{}, mock, 10*time.Millisecond, 16, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for s.Len() < 3 && time.Now().Before(deadline) {
		mock.Add(10 * time.Millisecond)
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done
	test.That(t, s.Len(), test.ShouldBeGreaterThanOrEqualTo, 3)
}

func TestMockSource(t *testing.T) {
	mock := clock.NewMock()
	src := NewMockSource(mock, 16384, 2, 8)

	raw, err := src.ReadRaw()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, raw.Az, test.ShouldEqual, int16(16384))

	// Quarter period: crest, the buoy accelerates downwards.
	mock.Add(2 * time.Second)
	raw, err = src.ReadRaw()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, raw.Az, test.ShouldBeLessThan, int16(16384))
}
