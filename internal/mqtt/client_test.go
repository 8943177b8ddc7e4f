package mqtt

import (
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"indoor-position-engine/internal/config"
)

type stubToken struct{}

func (stubToken) Wait() bool                     { return true }
func (stubToken) WaitTimeout(time.Duration) bool { return true }
func (stubToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (stubToken) Error() error { return nil }

// recordingClient captures the QoS passed to the underlying paho client.
type recordingClient struct {
	pahomqtt.Client
	publishQoS   byte
	subscribeQoS byte
}

func (r *recordingClient) IsConnected() bool { return true }

func (r *recordingClient) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	r.publishQoS = qos
	return stubToken{}
}

func (r *recordingClient) Subscribe(topic string, qos byte, callback pahomqtt.MessageHandler) pahomqtt.Token {
	r.subscribeQoS = qos
	return stubToken{}
}

func TestClient_PublishAndSubscribeUseConfiguredQoS(t *testing.T) {
	recorder := &recordingClient{}
	client := &Client{
		client:    recorder,
		config:    &config.MQTTConfig{QoS: 1},
		logger:    zerolog.Nop(),
		connected: true,
	}

	if err := client.Publish("indoornav/v1/fixes/dev-1", []byte(`{}`)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if recorder.publishQoS != 1 {
		t.Errorf("published with QoS %d, want configured 1", recorder.publishQoS)
	}

	if err := client.Subscribe("indoornav/v1/scans/+", nil); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if recorder.subscribeQoS != 1 {
		t.Errorf("subscribed with QoS %d, want configured 1", recorder.subscribeQoS)
	}
}
