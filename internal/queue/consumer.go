package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/ecocharge-reservation/internal/logger"
)

// Consumer drains the reservation queues and appends one line per event to
// a log file (logs/rewards.log by default).
type Consumer struct {
	URL     string
	LogPath string
}

func NewConsumer(url string) *Consumer {
	return &Consumer{URL: url, LogPath: filepath.Join("logs", "rewards.log")}
}

// Run connects, consumes and reconnects with exponential backoff until ctx
// is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			logger.Warn("rewards consumer: dial failed", "error", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("rewards consumer: loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warn("rewards consumer: set QoS failed", "error", err)
	}

	done := make(chan struct{})
	defer close(done)
	merged := make(chan amqp.Delivery)
	for _, q := range []string{ReservationCreatedQueue, ReservationCompletedQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
		msgs, err := ch.Consume(q, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", q, err)
		}
		go func(in <-chan amqp.Delivery) {
			for d := range in {
				select {
				case merged <- d:
				case <-done:
					return
				}
			}
		}(msgs)
	}

	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-connClosed:
			return closeReason("connection", err)
		case err := <-chClosed:
			return closeReason("channel", err)
		case d := <-merged:
			if err := c.handle(d.RoutingKey, d.Body); err != nil {
				logger.Error("rewards consumer: handle message failed", "queue", d.RoutingKey, "error", err)
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(queue string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	return writeLine(f, queue, body)
}

// writeLine renders a single human-readable line for an event body.
func writeLine(w io.Writer, queue string, body []byte) error {
	var line string
	switch queue {
	case ReservationCreatedQueue:
		var ev ReservationCreated
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		line = fmt.Sprintf("[%s] Reservation created | reservation_id=%d | user_id=%d | station_id=%d | slot=%s %s | green=%t | coins=%d\n",
			ev.CreatedAt.Format(time.RFC3339), ev.ReservationID, ev.UserID, ev.StationID, ev.Date, ev.Hour, ev.IsGreen, ev.EarnedCoins)
	case ReservationCompletedQueue:
		var ev ReservationCompleted
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		line = fmt.Sprintf("[%s] Reservation completed | reservation_id=%d | user_id=%d | +coins=%d | +xp=%d | +co2=%.2fkg | balance coins=%d xp=%d co2=%.2fkg\n",
			ev.CompletedAt.Format(time.RFC3339), ev.ReservationID, ev.UserID, ev.CoinsCredited, ev.XPCredited, ev.CO2Credited, ev.Coins, ev.XP, ev.CO2Saved)
	default:
		return fmt.Errorf("unknown queue %q", queue)
	}
	_, err := io.WriteString(w, line)
	return err
}

func closeReason(what string, err *amqp.Error) error {
	if err == nil {
		return errors.New(what + " closed")
	}
	return fmt.Errorf("%s closed: %w", what, err)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
