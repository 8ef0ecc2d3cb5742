package config_test

import (
	"errors"
	"testing"

	"github.com/okian/crease/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.PollIntervalMS, convey.ShouldEqual, 5_000)
			convey.So(cfg.NotificationRetention, convey.ShouldEqual, 100)
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.SourceKind, convey.ShouldEqual, config.SourceStatic)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("A redis store without a URL is rejected", func() {
			cfg.StoreDriver = config.StoreRedis
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("A postgres store without a DSN is rejected", func() {
			cfg.StoreDriver = config.StorePostgres
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("An unknown store driver is rejected", func() {
			cfg.StoreDriver = "cassandra"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("An http source without a base URL is rejected", func() {
			cfg.SourceKind = config.SourceHTTP
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("A backoff cap below the poll interval is rejected", func() {
			cfg.MaxBackoffMS = cfg.PollIntervalMS - 1
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("A redis push stream needs a redis URL", func() {
			cfg.PushRedisStream = "notifications.push"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			cfg.RedisURL = "redis://localhost:6379/0"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
