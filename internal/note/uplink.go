// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package note

import (
	"context"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relabs-tech/wavebuoy/internal/axl"
	"github.com/relabs-tech/wavebuoy/internal/metrics"
	"github.com/relabs-tech/wavebuoy/internal/queue"
)

// Publisher sends one payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// MQTTPublisher publishes with QoS 1 on a connected paho client.
type MQTTPublisher struct {
	Client  mqtt.Client
	Timeout time.Duration
}

// DialMQTT connects to broker and returns a publisher for it.
func DialMQTT(broker, clientID string, timeout time.Duration) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		client.Disconnect(0)
		return nil, errors.Errorf("mqtt connect to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return nil, errors.Wrapf(err, "mqtt connect to %s", broker)
	}
	return &MQTTPublisher{Client: client, Timeout: timeout}, nil
}

// Publish implements Publisher.
func (p *MQTTPublisher) Publish(topic string, payload []byte) error {
	token := p.Client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(p.Timeout) {
		return errors.Errorf("publish to %s timed out", topic)
	}
	return errors.Wrapf(token.Error(), "publish to %s", topic)
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.Client.Disconnect(250)
}

// Uplink is the transmission collaborator. It owns the consumer side of the
// transmission queue.
type Uplink struct {
	pub    Publisher
	topic  string
	queue  *queue.Consumer[*axl.Packet]
	logger *zap.Logger
}

// NewUplink returns an uplink draining q into topic.
func NewUplink(pub Publisher, topic string, q *queue.Consumer[*axl.Packet], logger *zap.Logger) *Uplink {
	return &Uplink{pub: pub, topic: topic, queue: q, logger: logger}
}

// Drain sends queued packets until the queue is empty or a send fails. A
// packet leaves the queue only after it was sent.
func (u *Uplink) Drain() (int, error) {
	sent := 0
	for {
		pck, ok := u.queue.Peek()
		if !ok {
			return sent, nil
		}
		if err := u.send(pck); err != nil {
			return sent, err
		}
		u.queue.Dequeue()
		sent++
		metrics.SegmentsSent.Inc()
	}
}

// send encodes and publishes one packet.
func (u *Uplink) send(pck *axl.Packet) error {
	b, err := axl.Marshal(pck)
	if err != nil {
		return err
	}
	if err := u.pub.Publish(u.topic, b); err != nil {
		return err
	}
	u.logger.Debug("sent package",
		zap.Int64("timestamp", pck.Timestamp),
		zap.Int("samples", pck.Len()),
		zap.Int("bytes", len(b)))
	return nil
}

// Run drains the queue every interval until ctx is done.
func (u *Uplink) Run(ctx context.Context, tick <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			n, err := u.Drain()
			if err != nil {
				u.logger.Warn("uplink failed, retrying next tick",
					zap.Int("sent", n), zap.Int("queued", u.queue.Len()), zap.Error(err))
			}
		}
	}
}
