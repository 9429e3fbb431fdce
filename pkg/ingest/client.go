package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
	"liyu1981.xyz/garden-telemetry-service/pkg/common"
)

type ClientConfig struct {
	Broker   string
	ClientID string
	// attempts before giving up on the first connection
	MaxRetries uint64
}

// Connect dials the broker, retrying with exponential backoff, and
// disconnects when ctx is done. paho reconnects on its own afterwards.
func Connect(ctx context.Context, cfg ClientConfig) (mqtt.Client, error) {
	logger := common.GetLoggerWith(common.LoggerNameIngest)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", zap.Error(err))
	})

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			logger.Warn("Failed to connect to MQTT broker", zap.String("broker", cfg.Broker), zap.Error(token.Error()))
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, cfg.MaxRetries), ctx))
	if err != nil {
		return nil, fmt.Errorf("could not establish MQTT connection after retries: %w", err)
	}

	logger.Info("Connected to MQTT broker", zap.String("broker", cfg.Broker))

	go func() {
		<-ctx.Done()
		client.Disconnect(250)
		logger.Info("MQTT connection closed")
	}()

	return client, nil
}
