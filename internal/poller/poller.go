package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// CartClearer is the part of the session manager the poller needs.
type CartClearer interface {
	Mutate(ctx context.Context, sessionID string, fn func(*cart.Store)) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Poller empties a session's cart once the order backend reports that the
// session placed an order.
type Poller struct {
	carts  CartClearer
	reader messageReader
	log    *zap.Logger
}

type orderPlaced struct {
	SessionID string `json:"session_id"`
}

func NewPoller(carts CartClearer, log *zap.Logger, topic, groupID string, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return newPoller(carts, reader, log)
}

func newPoller(carts CartClearer, reader messageReader, log *zap.Logger) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{carts: carts, reader: reader, log: log}
}

// Run consumes until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := p.handleNext(ctx); err != nil && ctx.Err() == nil {
			p.log.Warn("order-placed message skipped", zap.Error(err))
		}
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Warn("error closing reader", zap.Error(err))
	}
}

func (p *Poller) handleNext(ctx context.Context) error {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		return fmt.Errorf("error reading message: %w", err)
	}

	var payload orderPlaced
	if errUnmarshal := json.Unmarshal(m.Value, &payload); errUnmarshal != nil {
		return fmt.Errorf("error parsing message: %w", errUnmarshal)
	}
	if payload.SessionID == "" {
		return errors.New("missing or invalid session_id")
	}

	if err := p.carts.Mutate(ctx, payload.SessionID, func(c *cart.Store) { c.Clear() }); err != nil {
		return fmt.Errorf("error clearing cart: %w", err)
	}
	p.log.Info("cart cleared after order", zap.String("session_id", payload.SessionID))
	return nil
}
