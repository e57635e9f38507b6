package app

import (
	"context"
	"fmt"
	"io"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/wavebuoy/internal/axl"
	"github.com/relabs-tech/wavebuoy/internal/config"
)

// RunConsoleMQTT subscribes to the segment topic and prints a line per
// segment until ctx is done.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, out io.Writer, logger *zap.Logger) error {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTT.Broker).
		SetClientID(cfg.MQTT.ClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	logger.Info("connected to MQTT broker", zap.String("broker", cfg.MQTT.Broker))

	token := client.Subscribe(cfg.MQTT.TopicAxl, 1, func(_ mqtt.Client, msg mqtt.Message) {
		p, err := axl.Unmarshal(msg.Payload())
		if err != nil {
			logger.Warn("segment decode error", zap.Error(err))
			return
		}
		fmt.Fprintln(out, formatSegment(p))
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	logger.Info("subscribed", zap.String("topic", cfg.MQTT.TopicAxl))

	<-ctx.Done()
	return nil
}

func formatSegment(p *axl.Packet) string {
	id := "   -"
	if p.StorageID != nil {
		id = fmt.Sprintf("%4d", *p.StorageID)
	}
	return fmt.Sprintf(
		"[AXL %s] %s  n=%4d  f=%.2fHz  off=%5d  lat=%.5f lon=%.5f  z=%.3f",
		id, p.End().Format(time.RFC3339), p.Len(), p.Freq, p.Offset, p.Lat, p.Lon, mean(p.Axis(2)),
	)
}
