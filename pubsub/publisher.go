// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

// Package pubsub feeds accepted mints to a Redis stream.
// The publisher tails the bridge's event log and appends each event exactly once
// per stream, tracking its position in a cursor key next to the stream.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/redis/go-redis/v9"
	flag "github.com/spf13/pflag"

	"github.com/offchainlabs/bridgemint/bridgeos/mintlog"
	"github.com/offchainlabs/bridgemint/util/stopwaiter"
)

const (
	indexKey     = "index"
	accountKey   = "account"
	amountKey    = "amount"
	publisherKey = "publisher"
)

// EventSource is satisfied by *bridgeState.Controller.
type EventSource interface {
	Events(from, limit uint64) ([]mintlog.MintEvent, error)
}

type PublisherConfig struct {
	Enable       bool          `koanf:"enable"`
	RedisURL     string        `koanf:"redis-url"`
	Stream       string        `koanf:"stream"`
	BatchSize    uint64        `koanf:"batch-size"`
	PollInterval time.Duration `koanf:"poll-interval"`
	MaxLen       int64         `koanf:"max-len"`
}

var DefaultPublisherConfig = PublisherConfig{
	Enable:       false,
	RedisURL:     "",
	Stream:       "bridge-mints",
	BatchSize:    100,
	PollInterval: time.Second,
	MaxLen:       0,
}

var TestPublisherConfig = PublisherConfig{
	Enable:       true,
	Stream:       "test-mints",
	BatchSize:    4,
	PollInterval: 5 * time.Millisecond,
}

func PublisherConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.Bool(prefix+".enable", DefaultPublisherConfig.Enable, "publish accepted mints to a redis stream")
	f.String(prefix+".redis-url", DefaultPublisherConfig.RedisURL, "redis url of the mint feed")
	f.String(prefix+".stream", DefaultPublisherConfig.Stream, "name of the redis stream mints are appended to")
	f.Uint64(prefix+".batch-size", DefaultPublisherConfig.BatchSize, "maximum number of events published per round")
	f.Duration(prefix+".poll-interval", DefaultPublisherConfig.PollInterval, "how often to look for new events")
	f.Int64(prefix+".max-len", DefaultPublisherConfig.MaxLen, "approximate maximum length of the stream (0 = unbounded)")
}

func (c *PublisherConfig) Validate() error {
	if !c.Enable {
		return nil
	}
	if c.RedisURL == "" {
		return errors.New("feed enabled without a redis url")
	}
	if c.Stream == "" {
		return errors.New("feed stream name cannot be empty")
	}
	if c.BatchSize == 0 {
		return errors.New("feed batch size must be positive")
	}
	return nil
}

// CursorKeyFor names the key holding the index of the next event to publish.
// Never start the key with the stream name, exporters scrape streams by prefix.
func CursorKeyFor(streamName string) string {
	return "cursor-key:" + streamName
}

type Publisher struct {
	stopwaiter.StopWaiter
	id     string
	client redis.UniversalClient
	source EventSource
	cfg    *PublisherConfig
}

func NewPublisher(client redis.UniversalClient, source EventSource, cfg *PublisherConfig) (*Publisher, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if cfg.Stream == "" {
		return nil, fmt.Errorf("stream name cannot be empty")
	}
	if cfg.BatchSize == 0 {
		return nil, fmt.Errorf("batch size cannot be zero")
	}
	return &Publisher{
		id:     uuid.NewString(),
		client: client,
		source: source,
		cfg:    cfg,
	}, nil
}

func (p *Publisher) ID() string {
	return p.id
}

// getter is satisfied by both clients and transactions.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readCursor(ctx context.Context, cmd getter, streamName string) (uint64, error) {
	cursor, err := cmd.Get(ctx, CursorKeyFor(streamName)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return cursor, err
}

// Cursor returns the index of the next event to publish.
func (p *Publisher) Cursor(ctx context.Context) (uint64, error) {
	return readCursor(ctx, p.client, p.cfg.Stream)
}

// PublishPending appends at most one batch of unpublished events to the stream and
// returns how many it appended. A batch raced by another publisher appends nothing.
func (p *Publisher) PublishPending(ctx context.Context) (int, error) {
	published := 0
	cursorKey := CursorKeyFor(p.cfg.Stream)
	err := p.client.Watch(ctx, func(tx *redis.Tx) error {
		cursor, err := readCursor(ctx, tx, p.cfg.Stream)
		if err != nil {
			return err
		}
		events, err := p.source.Events(cursor, p.cfg.BatchSize)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, event := range events {
				pipe.XAdd(ctx, &redis.XAddArgs{
					Stream: p.cfg.Stream,
					MaxLen: p.cfg.MaxLen,
					Approx: p.cfg.MaxLen > 0,
					Values: p.encode(event),
				})
			}
			pipe.Set(ctx, cursorKey, events[len(events)-1].Index+1, 0)
			return nil
		})
		if err == nil {
			published = len(events)
		}
		return err
	}, cursorKey)
	if errors.Is(err, redis.TxFailedErr) {
		log.Debug("mint feed cursor moved concurrently", "stream", p.cfg.Stream)
		return 0, nil
	}
	return published, err
}

func (p *Publisher) encode(event mintlog.MintEvent) map[string]interface{} {
	return map[string]interface{}{
		indexKey:     strconv.FormatUint(event.Index, 10),
		accountKey:   event.Account.Hex(),
		amountKey:    event.Amount.Dec(),
		publisherKey: p.id,
	}
}

// DecodeEvent reads a stream entry written by a Publisher.
func DecodeEvent(message redis.XMessage) (mintlog.MintEvent, error) {
	field := func(key string) (string, error) {
		value, ok := message.Values[key].(string)
		if !ok {
			return "", fmt.Errorf("stream entry %s has no %s", message.ID, key)
		}
		return value, nil
	}
	rawIndex, err := field(indexKey)
	if err != nil {
		return mintlog.MintEvent{}, err
	}
	index, err := strconv.ParseUint(rawIndex, 10, 64)
	if err != nil {
		return mintlog.MintEvent{}, fmt.Errorf("stream entry %s: %w", message.ID, err)
	}
	account, err := field(accountKey)
	if err != nil {
		return mintlog.MintEvent{}, err
	}
	if !common.IsHexAddress(account) {
		return mintlog.MintEvent{}, fmt.Errorf("stream entry %s: invalid account %q", message.ID, account)
	}
	rawAmount, err := field(amountKey)
	if err != nil {
		return mintlog.MintEvent{}, err
	}
	amount, err := uint256.FromDecimal(rawAmount)
	if err != nil {
		return mintlog.MintEvent{}, fmt.Errorf("stream entry %s: %w", message.ID, err)
	}
	return mintlog.MintEvent{Index: index, Account: common.HexToAddress(account), Amount: amount}, nil
}

// Start publishes in the background until the publisher is stopped.
func (p *Publisher) Start(ctx context.Context) {
	p.StopWaiter.Start(ctx, p)
	p.CallIteratively(func(ctx context.Context) time.Duration {
		published, err := p.PublishPending(ctx)
		if err != nil {
			log.Warn("error publishing mints", "stream", p.cfg.Stream, "err", err)
			return p.cfg.PollInterval
		}
		if uint64(published) == p.cfg.BatchSize {
			return 0
		}
		return p.cfg.PollInterval
	})
}
