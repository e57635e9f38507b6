package zaplog

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.viam.com/test"

	"github.com/relabs-tech/wavebuoy/internal/state"
)

func TestEpochEncoder(t *testing.T) {
	var counter state.Counter
	counter.Publish(1700000000)

	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = EpochEncoder(&counter)

	var buf bytes.Buffer
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(&buf), zap.DebugLevel)
	l := zap.New(core)
	l.Info("hello")
	test.That(t, l.Sync(), test.ShouldBeNil)

	test.That(t, strings.HasPrefix(buf.String(), "1700000000\t"), test.ShouldBeTrue)
	test.That(t, buf.String(), test.ShouldContainSubstring, "hello")
}

func TestProcessLogger(t *testing.T) {
	test.That(t, Logger(), test.ShouldNotBeNil)

	l, err := New(false, nil)
	test.That(t, err, test.ShouldBeNil)
	SetLogger(l)
	test.That(t, Logger(), test.ShouldEqual, l)
	test.That(t, Logger().Core().Enabled(zap.DebugLevel), test.ShouldBeFalse)
}
