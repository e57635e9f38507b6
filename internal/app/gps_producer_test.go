package app

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"github.com/relabs-tech/wavebuoy/internal/gps"
)

type stubFix struct {
	fix gps.Fix
	ok  bool
}

func (s stubFix) Fix() (gps.Fix, bool) { return s.fix, s.ok }

type recordPublisher struct {
	mu    sync.Mutex
	topic string
	msgs  [][]byte
}

func (p *recordPublisher) Publish(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.msgs = append(p.msgs, payload)
	return nil
}

func TestPublishFixes(t *testing.T) {
	fix := gps.Fix{Time: time.Date(2024, 10, 15, 8, 18, 36, 0, time.UTC), Latitude: 59.9, Longitude: 10.7, Validity: "A"}
	pub := &recordPublisher{}
	tick := make(chan time.Time)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		publishFixes(ctx, stubFix{fix: fix, ok: true}, pub, "wavebuoy/gps", tick, zaptest.NewLogger(t))
	}()
	tick <- time.Time{}
	tick <- time.Time{}
	cancel()
	<-done

	pub.mu.Lock()
	defer pub.mu.Unlock()
	test.That(t, pub.topic, test.ShouldEqual, "wavebuoy/gps")
	test.That(t, pub.msgs, test.ShouldHaveLength, 2)
	var got gps.Fix
	test.That(t, json.Unmarshal(pub.msgs[0], &got), test.ShouldBeNil)
	test.That(t, got.Latitude, test.ShouldEqual, 59.9)
	test.That(t, got.Time.Equal(fix.Time), test.ShouldBeTrue)
}

func TestPublishFixesSkipsStale(t *testing.T) {
	pub := &recordPublisher{}
	tick := make(chan time.Time)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		publishFixes(ctx, stubFix{}, pub, "wavebuoy/gps", tick, zaptest.NewLogger(t))
	}()
	tick <- time.Time{}
	cancel()
	<-done
	test.That(t, pub.msgs, test.ShouldBeEmpty)
}
