package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"liyu1981.xyz/garden-telemetry-service/pkg/common"
	"liyu1981.xyz/garden-telemetry-service/pkg/garden"
)

// Trigger calls the function endpoint that simulates a round of sensor
// readings.
type Trigger struct {
	url         string
	credentials garden.CredentialProvider
	client      *http.Client
	circuit     *gobreaker.CircuitBreaker
	now         func() time.Time
	logger      *zap.Logger
}

func NewTrigger(url string, credentials garden.CredentialProvider, client *http.Client, breaker BreakerSettings) *Trigger {
	if client == nil {
		client = http.DefaultClient
	}
	return &Trigger{
		url:         url,
		credentials: credentials,
		client:      client,
		circuit:     newBreaker("garden-trigger", breaker),
		now:         time.Now,
		logger: common.GetLoggerWith(
			common.LoggerNameRemote,
			zap.String(common.LoggerFieldCategory, common.LoggerCategoryTrigger),
		),
	}
}

type triggerResponse struct {
	Error string `json:"error"`
}

func (t *Trigger) Trigger(ctx context.Context) error {
	cred, err := garden.ResolveCredential(ctx, t.credentials, t.now())
	if err != nil {
		t.logger.Warn("Trigger skipped, no usable credential", zap.Error(err))
		return err
	}

	_, err = t.circuit.Execute(func() (interface{}, error) {
		return nil, abandoned(ctx, t.post(ctx, cred))
	})
	if err != nil {
		var triggerErr *garden.TriggerError
		if !errors.As(err, &triggerErr) {
			err = &garden.TriggerError{Err: breakerError(err)}
		}
		t.logger.Error("Trigger failed", zap.Error(err))
		return err
	}

	t.logger.Info("Trigger accepted")
	return nil
}

func (t *Trigger) post(ctx context.Context, cred garden.Credential) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, nil)
	if err != nil {
		return &garden.TriggerError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cred.Token)

	resp, err := t.client.Do(req)
	if err != nil {
		return &garden.TriggerError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return &garden.TriggerError{StatusCode: resp.StatusCode, Err: err}
	}

	var result triggerResponse
	decodeErr := json.Unmarshal(body, &result)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &garden.TriggerError{StatusCode: resp.StatusCode, Message: result.Error}
	}
	// the endpoint always answers with a JSON object
	if decodeErr != nil {
		return &garden.TriggerError{StatusCode: resp.StatusCode, Err: decodeErr}
	}
	return nil
}
