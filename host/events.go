package host

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/sessionhandoff/plugin"
	"github.com/BaSui01/sessionhandoff/types"
)

// Subscribe opens the host's server-sent event stream. The returned channel
// is closed when the stream ends or ctx is cancelled. Malformed events are
// logged and skipped.
func (c *Client) Subscribe(ctx context.Context) (<-chan plugin.Event, error) {
	start := time.Now()
	req, err := c.newRequest(ctx, http.MethodGet, "/event", nil)
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, err.Error()).WithCause(err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		c.record(OpSubscribe, 0, time.Since(start))
		return nil, transportError(OpSubscribe, err)
	}
	c.record(OpSubscribe, resp.StatusCode, time.Since(start))
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, mapHTTPError(OpSubscribe, resp.StatusCode, readErrorMessage(resp.Body))
	}

	ch := make(chan plugin.Event)
	go c.readEvents(ctx, resp.Body, ch)
	return ch, nil
}

func (c *Client) readEvents(ctx context.Context, body io.ReadCloser, ch chan<- plugin.Event) {
	defer close(ch)
	defer body.Close()

	// Unblock the reader when the caller goes away.
	stop := context.AfterFunc(ctx, func() { body.Close() })
	defer stop()

	reader := bufio.NewReader(body)
	var data []string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				c.logger.Warn("event stream interrupted", zap.Error(err))
			}
			return
		}
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			if len(data) == 0 {
				continue
			}
			payload := strings.Join(data, "\n")
			data = data[:0]

			var ev plugin.Event
			if err := json.Unmarshal([]byte(payload), &ev); err != nil || ev.Type == "" {
				c.logger.Warn("skipping malformed host event", zap.Int("bytes", len(payload)), zap.Error(err))
				continue
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		default:
			// comments, event names and ids carry nothing we route on
		}
	}
}

// Listen subscribes to the event stream and calls fn for every event,
// reconnecting after reconnectDelay whenever the stream drops. It returns
// when ctx is cancelled.
func (c *Client) Listen(ctx context.Context, reconnectDelay time.Duration, fn func(context.Context, plugin.Event)) error {
	if reconnectDelay <= 0 {
		reconnectDelay = 2 * time.Second
	}
	for {
		events, err := c.Subscribe(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("event stream unavailable, retrying",
				zap.Duration("retry_in", reconnectDelay),
				zap.Error(err),
			)
		} else {
			c.logger.Info("subscribed to host events")
			for ev := range events {
				fn(ctx, ev)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("event stream closed, reconnecting", zap.Duration("retry_in", reconnectDelay))
		}

		timer := time.NewTimer(reconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
