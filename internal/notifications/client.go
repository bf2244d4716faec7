package notifications

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"nest_sales_monitor/internal/extract"

	"github.com/rs/zerolog/log"
)

const (
	circuitFailureThreshold = 5
	circuitResetAfter       = 30 * time.Second
	maxSalesPerMessage      = 10
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	topic      string
	enabled    bool
	priority   string

	// Circuit breaker state
	failures    int
	lastFailure time.Time
	circuitOpen bool
	mutex       sync.Mutex

	// Metrics
	totalSent   int64
	totalFailed int64
}

type NotificationError struct {
	Type       string
	StatusCode int
	Underlying error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification failed [%s]: %v", e.Type, e.Underlying)
}

func NewClient(baseURL, topic string, enabled bool, priority string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:  baseURL,
		topic:    topic,
		enabled:  enabled,
		priority: priority,
	}
}

// NotifyNewSales reports the sales one run appended. Best effort: failures
// are logged and counted, never surfaced to the pipeline.
func (c *Client) NotifyNewSales(ctx context.Context, sales []extract.SaleRecord, skipped int) {
	if len(sales) == 0 {
		return
	}
	if err := c.Send(ctx, formatNewSales(sales, skipped)); err != nil {
		log.Warn().Err(err).Msg("Failed to send new sales notification")
	}
}

// NotifyRunFailure reports a fatal run error.
func (c *Client) NotifyRunFailure(ctx context.Context, runErr error) {
	message := fmt.Sprintf("❌ Sales monitor run failed: %v", runErr)
	if err := c.Send(ctx, message); err != nil {
		log.Warn().Err(err).Msg("Failed to send run failure notification")
	}
}

// Send pushes one message to the ntfy topic. One attempt per message; a
// failing ntfy server only trips the circuit breaker, the next run's
// message is the retry.
func (c *Client) Send(ctx context.Context, message string) error {
	if !c.enabled {
		log.Debug().Msg("Notifications disabled, skipping")
		return nil
	}

	if c.isCircuitOpen() {
		log.Warn().Msg("Circuit breaker open, skipping notification")
		return &NotificationError{
			Type:       "circuit_open",
			Underlying: fmt.Errorf("circuit breaker is open"),
		}
	}

	if err := c.send(ctx, message); err != nil {
		c.recordFailure()
		return err
	}
	c.recordSuccess()
	return nil
}

func (c *Client) send(ctx context.Context, message string) error {
	url := fmt.Sprintf("%s/%s", c.baseURL, c.topic)

	log.Debug().
		Str("url", url).
		Str("message", message).
		Msg("Sending notification")

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBufferString(message))
	if err != nil {
		return &NotificationError{Type: "client", Underlying: err}
	}

	req.Header.Set("Content-Type", "text/plain")
	if c.priority != "" {
		req.Header.Set("Priority", c.priority)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errType := "network"
		if ctx.Err() == context.DeadlineExceeded {
			errType = "timeout"
		}
		return &NotificationError{Type: errType, Underlying: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return categorizeHTTPError(resp.StatusCode)
	}
	return nil
}

func categorizeHTTPError(statusCode int) *NotificationError {
	var errType string
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		errType = "auth"
	case statusCode == http.StatusTooManyRequests:
		errType = "rate_limit"
	case statusCode >= 400 && statusCode < 500:
		errType = "client"
	case statusCode >= 500:
		errType = "server"
	default:
		errType = "unknown"
	}

	return &NotificationError{
		Type:       errType,
		StatusCode: statusCode,
		Underlying: fmt.Errorf("HTTP %d", statusCode),
	}
}

// formatNewSales builds the run summary message.
func formatNewSales(sales []extract.SaleRecord, skipped int) string {
	var b strings.Builder

	if len(sales) == 1 {
		b.WriteString("💰 1 new sale recorded")
	} else {
		fmt.Fprintf(&b, "💰 %d new sales recorded", len(sales))
	}
	if skipped > 0 {
		fmt.Fprintf(&b, " (%d already on the sheet)", skipped)
	}
	b.WriteString("\n")

	for i, sale := range sales {
		if i >= maxSalesPerMessage {
			fmt.Fprintf(&b, "... and %d more\n", len(sales)-maxSalesPerMessage)
			break
		}
		fmt.Fprintf(&b, "• %s: Rs. %s (invoice #%s)\n", sale.Name, sale.Amount, sale.InvoiceID)
	}

	return strings.TrimRight(b.String(), "\n")
}

func (c *Client) isCircuitOpen() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.circuitOpen {
		return false
	}
	if time.Since(c.lastFailure) > circuitResetAfter {
		// Reset window elapsed, try to close the circuit (half-open state)
		c.circuitOpen = false
		c.failures = 0
		log.Debug().Msg("Circuit breaker reset, allowing notifications")
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.failures = 0
	c.circuitOpen = false
	c.totalSent++
}

func (c *Client) recordFailure() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.failures++
	c.lastFailure = time.Now()
	c.totalFailed++
	if c.failures >= circuitFailureThreshold {
		if !c.circuitOpen {
			log.Warn().Int("failures", c.failures).Msg("Circuit breaker opened for notifications")
		}
		c.circuitOpen = true
	}
}

// Metrics returns how many notifications were sent and how many failed.
func (c *Client) Metrics() (sent, failed int64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.totalSent, c.totalFailed
}
