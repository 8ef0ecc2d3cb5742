package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/okian/crease/internal/adapters/push"
	"github.com/okian/crease/internal/adapters/repository"
	"github.com/okian/crease/internal/adapters/source"
	"github.com/okian/crease/internal/config"
)

// openRedis returns nil when no redis_url is configured.
func openRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis_url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func buildStore(ctx context.Context, cfg *config.Config, rdb *redis.Client) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreRedis:
		if rdb == nil {
			return nil, fmt.Errorf("%w: redis store without a redis client", config.ErrInvalidConfig)
		}
		return repository.NewRedisStore(rdb, repository.WithKeyPrefix(cfg.StoreKeyPrefix)), nil
	case config.StorePostgres:
		pg, err := repository.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return pg, nil
	default:
		return repository.NewMemoryStore(), nil
	}
}

func buildSource(cfg *config.Config) source.Source {
	if cfg.SourceKind == config.SourceHTTP {
		return source.NewHTTPClient(cfg.SourceBaseURL, source.WithAPIKey(cfg.SourceAPIKey))
	}
	return source.NewDemo()
}

// buildPusher fans out to every configured channel; none configured discards.
func buildPusher(cfg *config.Config, rdb *redis.Client) (push.Pusher, error) {
	var channels push.Fanout
	if cfg.PushWebhookURL != "" {
		channels = append(channels, push.NewWebhook(cfg.PushWebhookURL))
	}
	if cfg.PushRedisStream != "" && rdb != nil {
		channels = append(channels, push.NewStream(rdb, cfg.PushRedisStream))
	}
	if cfg.DiscordWebhookURL != "" {
		d, err := push.NewDiscord(cfg.DiscordWebhookURL)
		if err != nil {
			return nil, err
		}
		channels = append(channels, d)
	}
	if cfg.TelegramToken != "" {
		t, err := push.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			return nil, err
		}
		channels = append(channels, t)
	}
	if len(channels) == 0 {
		return push.Discard{}, nil
	}
	return channels, nil
}
