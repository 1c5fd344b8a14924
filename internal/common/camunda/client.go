// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"deal-workers/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Client owns the gateway connection shared by every job worker.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RequestTimeout         time.Duration
	RetryConfig            *RetryConfig
}

// RetryConfig bounds the backoff applied to transient gateway failures.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   10 * time.Second,
}

// CompleteRetryConfig is used when completing jobs. The job lock is short,
// so the delays are too.
var CompleteRetryConfig = &RetryConfig{
	MaxRetries: 3,
	BaseDelay:  200 * time.Millisecond,
	MaxDelay:   2 * time.Second,
}

// NewClientWithConfig dials the gateway and waits for a topology answer.
func NewClientWithConfig(config *ClientConfig) (*Client, error) {
	if config.RetryConfig == nil {
		config.RetryConfig = DefaultRetryConfig
	}
	if config.ConnectionTimeout <= 0 {
		config.ConnectionTimeout = 10 * time.Second
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         config.GatewayAddress,
		UsePlaintextConnection: config.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("create zeebe client: %w", err)
	}

	c := &Client{client: zeebeClient, config: config}
	if err := c.HealthCheck(context.Background()); err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("zeebe gateway %s unreachable: %w", config.GatewayAddress, err)
	}
	return c, nil
}

func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// ExecuteWithRetry runs commandFunc under the client's retry policy and
// returns its result.
func (c *Client) ExecuteWithRetry(
	ctx context.Context,
	commandFunc func(context.Context) (interface{}, error),
	operationName string,
) (interface{}, error) {
	var result interface{}
	err := Retry(ctx, c.config.RetryConfig, operationName, func(ctx context.Context) error {
		var err error
		result, err = commandFunc(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// HealthCheck asks the gateway for its topology.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

// Retry calls fn until it succeeds, fails permanently, or rc.MaxRetries
// retries are spent. Delays double from BaseDelay up to MaxDelay. The final
// failure is returned as a StandardError; a cancelled ctx is returned as is.
func Retry(ctx context.Context, rc *RetryConfig, operation string, fn func(context.Context) error) error {
	if rc == nil {
		rc = DefaultRetryConfig
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !isRetryableZeebeError(err) || attempt == rc.MaxRetries {
			return mapZeebeError(err, operation, attempt)
		}

		delay := rc.BaseDelay << attempt
		if delay > rc.MaxDelay {
			delay = rc.MaxDelay
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled after %d attempts: %w", operation, attempt+1, ctx.Err())
		}
	}
}

var retryablePhrases = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"deadline exceeded",
	"unavailable",
	"unreachable",
	"broken pipe",
	"resource_exhausted",
}

func isRetryableZeebeError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range retryablePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// mapZeebeError keeps transient failures retryable; anything else is internal.
func mapZeebeError(err error, operation string, attempt int) error {
	wrapped := fmt.Errorf("zeebe %s failed after %d attempts: %w", operation, attempt+1, err)
	if isRetryableZeebeError(err) {
		return errors.NewBrokerUnavailableError(operation, wrapped)
	}
	return errors.NewInternalError(wrapped.Error())
}
