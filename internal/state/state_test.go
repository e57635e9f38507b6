package state

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"
)

func TestUseBeforeInit(t *testing.T) {
	st := New()
	test.That(t, st.Initialized(), test.ShouldBeFalse)
	test.That(t, func() { st.Now() }, test.ShouldPanic)
	test.That(t, func() { st.Update(func(*SharedState) {}) }, test.ShouldPanic)
	test.That(t, func() { st.Snapshot() }, test.ShouldPanic)
}

func TestInitOnce(t *testing.T) {
	st := New()
	test.That(t, func() { st.Init(nil) }, test.ShouldPanic)

	st.Init(NewSoftRTC(clock.NewMock()))
	test.That(t, st.Initialized(), test.ShouldBeTrue)
	test.That(t, func() { st.Init(NewSoftRTC(clock.NewMock())) }, test.ShouldPanic)
}

func TestSoftRTC(t *testing.T) {
	mock := clock.NewMock()
	rtc := NewSoftRTC(mock)
	test.That(t, rtc.Now().Equal(mock.Now()), test.ShouldBeTrue)

	fix := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rtc.Set(fix)
	test.That(t, rtc.Now().Equal(fix), test.ShouldBeTrue)

	mock.Add(1500 * time.Millisecond)
	test.That(t, rtc.Now().Equal(fix.Add(1500*time.Millisecond)), test.ShouldBeTrue)
	test.That(t, mock.Now().Unix(), test.ShouldEqual, 1)
}

func TestUpdateAndSnapshot(t *testing.T) {
	mock := clock.NewMock()
	st := New()
	st.Init(NewSoftRTC(mock))

	fix := time.Unix(1700000000, 0)
	st.Update(func(s *SharedState) {
		s.RTC.Set(fix)
		s.PositionTime = 1699999990
		s.Lat = 60.1
		s.Lon = 5.3
	})

	now, pt, lon, lat := st.Snapshot()
	test.That(t, now.Unix(), test.ShouldEqual, 1700000000)
	test.That(t, pt, test.ShouldEqual, uint32(1699999990))
	test.That(t, lon, test.ShouldEqual, 5.3)
	test.That(t, lat, test.ShouldEqual, 60.1)

	got := With(st, func(s *SharedState) float64 { return s.Lat })
	test.That(t, got, test.ShouldEqual, 60.1)
	test.That(t, st.Now().Unix(), test.ShouldEqual, 1700000000)
}

func TestEpochTicker(t *testing.T) {
	mock := clock.NewMock()
	st := New()
	st.Init(NewSoftRTC(mock))
	st.Update(func(s *SharedState) { s.RTC.Set(time.Unix(1000, 0)) })

	var counter Counter
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunEpochTicker(ctx, mock, st, &counter, time.Second)
		close(done)
	}()

	waitFor(t, func() bool { return counter.Load() == 1000 })

	mock.Add(time.Second)
	waitFor(t, func() bool { return counter.Load() == 1001 })

	st.Update(func(s *SharedState) { s.RTC.Set(time.Unix(500, 0)) })
	mock.Add(time.Second)
	waitFor(t, func() bool { return counter.Load() == 501 })

	cancel()
	<-done
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}
