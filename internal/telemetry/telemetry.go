// Package telemetry mirrors the device-to-host line stream to an MQTT
// broker so fleet tooling can observe robots without touching the serial
// link. It is strictly an observer: nothing is ever consumed from MQTT.
package telemetry

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/courierbotics/trundle/internal/monitoring"
)

const (
	connectTimeout = 5 * time.Second
	retryInterval  = 5 * time.Second
)

// Publisher republishes outbound protocol lines to trundle/<robot-id>/events.
// It implements protocol.Sender. Publishes are best-effort and asynchronous;
// a slow or absent broker never delays the control cycle.
type Publisher struct {
	client mqtt.Client
	topic  string
}

// Connect dials the broker and returns a Publisher. brokerURL is a paho
// URL such as tcp://broker:1883.
func Connect(brokerURL, robotID string) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID("trundle-" + robotID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(retryInterval)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("telemetry: connect to %s timed out", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("telemetry: connect: %w", err)
	}

	return &Publisher{
		client: client,
		topic:  fmt.Sprintf("trundle/%s/events", robotID),
	}, nil
}

// Send implements protocol.Sender. QoS 0, fire-and-forget: telemetry loss
// is acceptable, a stalled control cycle is not.
func (p *Publisher) Send(line string) {
	if !p.client.IsConnected() {
		return
	}
	token := p.client.Publish(p.topic, 0, false, line)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			monitoring.Log.Debug().Err(err).Msg("telemetry publish failed")
		}
	}()
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
