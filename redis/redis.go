package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/0xERR0R/rpzindex/config"
	"github.com/0xERR0R/rpzindex/log"

	goredis "github.com/go-redis/redis/v8"
	retry "github.com/avast/retry-go/v4"
	"github.com/sirupsen/logrus"
)

// ChannelName is the pub/sub channel a Client publishes ReloadMessages
// on, mirroring blocky/redis's SyncChannelName convention.
const ChannelName = "rpzindex_zone_reloaded"

// Client wraps a go-redis connection with the single responsibility of
// announcing completed zone reloads, matching the shape (if not the
// scope) of blocky/redis's Client.
type Client struct {
	client *goredis.Client
	log    *logrus.Entry
}

// New creates a Client, or returns (nil, nil) if cfg has no address --
// the notifier is an entirely optional collaborator of Index.Ready.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, nil //nolint:nilnil
	}

	var base *goredis.Client

	if len(cfg.SentinelAddresses) > 0 {
		base = goredis.NewFailoverClient(&goredis.FailoverOptions{
			MasterName:       cfg.Address,
			SentinelUsername: cfg.Username,
			SentinelPassword: cfg.SentinelPassword,
			SentinelAddrs:    cfg.SentinelAddresses,
			Username:         cfg.Username,
			Password:         cfg.Password,
			DB:               cfg.Database,
			MaxRetries:       cfg.ConnectionAttempts,
			MaxRetryBackoff:  time.Duration(cfg.ConnectionCooldown),
		})
	} else {
		base = goredis.NewClient(&goredis.Options{
			Addr:            cfg.Address,
			Username:        cfg.Username,
			Password:        cfg.Password,
			DB:              cfg.Database,
			MaxRetries:      cfg.ConnectionAttempts,
			MaxRetryBackoff: time.Duration(cfg.ConnectionCooldown),
		})
	}

	if _, err := base.Ping(ctx).Result(); err != nil {
		if cfg.Required {
			return nil, fmt.Errorf("can't connect to redis: %w", err)
		}

		log.Log().Warnf("redis not reachable, zone reload notifications disabled: %s", err)

		return nil, nil //nolint:nilnil
	}

	return &Client{client: base, log: log.PrefixedLog("redis")}, nil
}

// PublishReload announces that zone z was reloaded with a new origin.
// Publishing is retried a few times so a transiently unreachable redis
// instance doesn't turn into a blocking dependency of Index.Ready;
// a publish that exhausts its retries is logged, not returned, since
// the reload itself has already committed.
func (c *Client) PublishReload(ctx context.Context, zone uint8, origin string) {
	if c == nil {
		return
	}

	msg, err := json.Marshal(ReloadMessage{Zone: zone, Origin: origin})
	if err != nil {
		c.log.Errorf("can't marshal reload message: %s", err)

		return
	}

	err = retry.Do(
		func() error {
			return c.client.Publish(ctx, ChannelName, msg).Err()
		},
		retry.Attempts(3),
		retry.Delay(100*time.Millisecond),
		retry.Context(ctx),
	)
	if err != nil {
		c.log.Errorf("giving up publishing zone %d reload after retries: %s", zone, err)
	}
}

// Subscribe returns a channel of ReloadMessages, for another process
// instance to invalidate its own find_name/find_ip caches on.
func (c *Client) Subscribe(ctx context.Context) <-chan ReloadMessage {
	out := make(chan ReloadMessage)

	if c == nil {
		close(out)

		return out
	}

	sub := c.client.Subscribe(ctx, ChannelName)

	go func() {
		defer close(out)
		defer sub.Close()

		for msg := range sub.Channel() {
			var m ReloadMessage

			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				c.log.Errorf("can't unmarshal reload message: %s", err)

				continue
			}

			select {
			case out <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Close releases the underlying redis connection.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}

	return c.client.Close()
}
