package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/bankroll/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("BANKROLL_ADDR", ":8080")
			_ = os.Setenv("BANKROLL_STORE", "redis")
			_ = os.Setenv("BANKROLL_REDIS_DB", "3")
			_ = os.Setenv("BANKROLL_WIN_RATE", "0.75")
			_ = os.Setenv("BANKROLL_FREE_SIGNALS", "5")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreRedis)
				convey.So(cfg.RedisDB, convey.ShouldEqual, 3)
				convey.So(cfg.WinRate, convey.ShouldEqual, 0.75)
				convey.So(cfg.FreeSignals, convey.ShouldEqual, 5)
				convey.So(cfg.LowOddThreshold, convey.ShouldEqual, 1.27)
			})
		})

		convey.Convey("When loading config with YAML file and env overrides", func() {
			yamlContent := `
addr: ":9090"
results_feed: "/data/results.txt"
initial_bankroll: 250
low_odd_threshold: 1.30
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("BANKROLL_CONFIG", tmpFile)
			_ = os.Setenv("BANKROLL_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins over file, and file over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ResultsFeed, convey.ShouldEqual, "/data/results.txt")
				convey.So(cfg.InitialBankroll, convey.ShouldEqual, 250)
				convey.So(cfg.LowOddThreshold, convey.ShouldEqual, 1.30)
				convey.So(cfg.MinimumViableOdd, convey.ShouldEqual, 1.24)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("BANKROLL_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("BANKROLL_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("BANKROLL_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("BANKROLL_REDIS_DB", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an invalid staking policy", func() {
			_ = os.Setenv("BANKROLL_MINIMUM_VIABLE_ODD", "0.9")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation rejects it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, name := range []string{
		"BANKROLL_CONFIG", "BANKROLL_ADDR", "BANKROLL_STORE", "BANKROLL_REDIS_DB",
		"BANKROLL_WIN_RATE", "BANKROLL_FREE_SIGNALS", "BANKROLL_MINIMUM_VIABLE_ODD",
	} {
		_ = os.Unsetenv(name)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "bankroll-config-*.yaml")
	if err != nil {
		panic(err)
	}
	defer func() { _ = tmpFile.Close() }()

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
