package storage

import (
	"math/rand"
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/relabs-tech/wavebuoy/internal/state"
)

func TestNullClock(t *testing.T) {
	ts := NullClock{}.Timestamp()
	test.That(t, ts, test.ShouldResemble, Timestamp{})
	test.That(t, ts.Time().Equal(time.Unix(0, 0)), test.ShouldBeTrue)
}

func TestCountClock(t *testing.T) {
	var counter state.Counter
	clk := CountClock{Counter: &counter}

	test.That(t, clk.Timestamp(), test.ShouldResemble, Timestamp{})

	// 2022-02-28 23:59:58 UTC
	counter.Publish(1646092798)
	test.That(t, clk.Timestamp(), test.ShouldResemble, Timestamp{
		YearSince1970:    52,
		ZeroIndexedMonth: 1,
		ZeroIndexedDay:   27,
		Hours:            23,
		Minutes:          59,
		Seconds:          58,
	})

	// 2024-12-31 00:00:00 UTC
	counter.Publish(1735603200)
	ts := clk.Timestamp()
	test.That(t, ts.ZeroIndexedMonth, test.ShouldEqual, uint8(11))
	test.That(t, ts.ZeroIndexedDay, test.ShouldEqual, uint8(30))
}

func TestTimestampRoundTrip(t *testing.T) {
	last := time.Date(2225, 12, 31, 23, 59, 59, 0, time.UTC).Unix()
	cases := []int64{
		0,
		59,
		86399,
		86400,
		951782400,  // 2000-02-29
		1709164800, // 2024-02-29
		1735689599, // 2024-12-31 23:59:59
		last,
	}
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		cases = append(cases, r.Int63n(last+1))
	}

	for _, e := range cases {
		got := TimestampFromUnix(e).Time().Unix()
		if got != e {
			t.Fatalf("round trip of %d gave %d", e, got)
		}
	}
}

func TestTimestampOutOfRange(t *testing.T) {
	test.That(t, TimestampFromUnix(-1), test.ShouldResemble, Timestamp{})

	past := time.Date(2226, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	test.That(t, TimestampFromUnix(past), test.ShouldResemble, maxTimestamp)
	test.That(t, TimestampFromUnix(past+86400*365), test.ShouldResemble, maxTimestamp)
}
