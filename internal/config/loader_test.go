package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/tavern/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	// Keep a developer's .env out of the picture.
	t.Chdir(t.TempDir())

	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TAVERN_ADDR", ":8080")
			_ = os.Setenv("TAVERN_MAX_ENCOUNTERS", "25")
			_ = os.Setenv("TAVERN_LOG_FORMAT", "json")
			_ = os.Setenv("TAVERN_ALLOWED_ORIGINS", "http://localhost:3000,https://tavern.example")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxEncounters, convey.ShouldEqual, 25)
				convey.So(cfg.JSONLogs(), convey.ShouldBeTrue)
				convey.So(cfg.AllowedOrigins, convey.ShouldResemble, []string{"http://localhost:3000", "https://tavern.example"})
				convey.So(cfg.MaxSearchResults, convey.ShouldEqual, 50)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":9090"
max_search_results: 10
suggestion_limit: 2
catalog_path: "/srv/monsters.yaml"
allowed_origins:
  - "https://a.example"
`)
			_ = os.Setenv("TAVERN_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.MaxSearchResults, convey.ShouldEqual, 10)
				convey.So(cfg.SuggestionLimit, convey.ShouldEqual, 2)
				convey.So(cfg.CatalogPath, convey.ShouldEqual, "/srv/monsters.yaml")
				convey.So(cfg.AllowedOrigins, convey.ShouldResemble, []string{"https://a.example"})
			})

			convey.Convey("When env vars are also set", func() {
				_ = os.Setenv("TAVERN_ADDR", ":8080")

				cfg, err := config.Load(ctx)

				convey.Convey("Then environment variables should override file values", func() {
					convey.So(err, convey.ShouldBeNil)
					convey.So(cfg.Addr, convey.ShouldEqual, ":8080")          // Overridden by env
					convey.So(cfg.MaxSearchResults, convey.ShouldEqual, 10) // From file
				})
			})
		})

		convey.Convey("When a .env file is present", func() {
			convey.So(os.WriteFile(".env", []byte("TAVERN_LOG_LEVEL=debug\n"), 0o600), convey.ShouldBeNil)
			defer func() { _ = os.Remove(".env") }()

			cfg, err := config.Load(ctx)

			convey.Convey("Then its values are applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("TAVERN_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("TAVERN_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a value fails validation", func() {
			_ = os.Setenv("TAVERN_MAX_SEARCH_RESULTS", "0")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "max_search_results")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"TAVERN_CONFIG",
		"TAVERN_ADDR",
		"TAVERN_LOG_LEVEL",
		"TAVERN_LOG_FORMAT",
		"TAVERN_ALLOWED_ORIGINS",
		"TAVERN_MAX_ENCOUNTERS",
		"TAVERN_MAX_SEARCH_RESULTS",
		"TAVERN_SUGGESTION_LIMIT",
		"TAVERN_CATALOG_PATH",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tavern-config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
