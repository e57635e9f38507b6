package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/relabs-tech/wavebuoy/internal/config"
	"github.com/relabs-tech/wavebuoy/internal/gps"
	"github.com/relabs-tech/wavebuoy/internal/note"
)

// RunGPSProducer reads the GPS receiver on its own and publishes the current
// fix as JSON once per second. It is used to check the antenna and wiring
// without running the acquisition loop.
func RunGPSProducer(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	timeout := time.Duration(cfg.MQTT.TimeoutMS) * time.Millisecond
	pub, err := note.DialMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientIDGPS, timeout)
	if err != nil {
		return err
	}
	defer pub.Close()
	logger.Info("GPS producer connected to MQTT broker", zap.String("broker", cfg.MQTT.Broker))

	port, err := gps.OpenSerial(cfg.GPS.SerialPort, cfg.GPS.BaudRate)
	if err != nil {
		return err
	}
	logger.Info("GPS serial port opened", zap.String("port", cfg.GPS.SerialPort), zap.Uint("baud", cfg.GPS.BaudRate))

	clk := clock.New()
	rcv := gps.NewReceiver(clk, time.Duration(cfg.GPS.MaxAgeMS)*time.Millisecond, logger.Named("gps"))
	rctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errc := make(chan error, 1)
	go func() {
		errc <- rcv.Run(rctx, port)
		cancel()
	}()

	ticker := clk.Ticker(time.Second)
	defer ticker.Stop()
	publishFixes(rctx, rcv, pub, cfg.MQTT.TopicGPS, ticker.C, logger)
	if err := <-errc; ctx.Err() == nil {
		return err
	}
	return nil
}

type fixSource interface {
	Fix() (gps.Fix, bool)
}

func publishFixes(ctx context.Context, src fixSource, pub note.Publisher, topic string, tick <-chan time.Time, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
		}
		f, ok := src.Fix()
		if !ok {
			logger.Debug("no fresh fix")
			continue
		}
		b, err := json.Marshal(f)
		if err != nil {
			logger.Warn("fix marshal error", zap.Error(err))
			continue
		}
		if err := pub.Publish(topic, b); err != nil {
			logger.Warn("fix publish failed", zap.Error(err))
		}
	}
}
