package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/nsxbet/ddl-validator/pkg/advisor"
	"github.com/nsxbet/ddl-validator/pkg/config"
	"github.com/nsxbet/ddl-validator/pkg/db"
	"github.com/nsxbet/ddl-validator/pkg/logger"
	"github.com/nsxbet/ddl-validator/pkg/reviewer"
	"github.com/nsxbet/ddl-validator/pkg/secrets"
)

func initLogger() *slog.Logger {
	logLevel := slog.LevelWarn
	if viper.GetBool("debug") {
		logLevel = slog.LevelDebug
	} else if viper.GetBool("verbose") {
		logLevel = slog.LevelInfo
	}
	return logger.NewWithLevel(logLevel).GetSlogLogger()
}

// loadConfiguration reads the config file found by viper, if any, and applies
// the connection flags on top of it.
func loadConfiguration() (*config.Config, error) {
	cfg := config.DefaultConfig("default")
	if path := viper.ConfigFileUsed(); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if v := viper.GetString("secret"); v != "" {
		cfg.Database.Secret = v
	}
	if v := viper.GetString("region"); v != "" {
		cfg.Database.Region = v
	}
	if v := viper.GetString("dsn"); v != "" {
		cfg.Database.DSN = v
	}
	return cfg, nil
}

// connection is an open cursor on the target database.
type connection struct {
	cursor *db.Cursor
	close  func()
}

// connect opens the target database. It returns nil without error when no
// database is configured.
func connect(ctx context.Context, cfg *config.Config, log *slog.Logger) (*connection, error) {
	dsn := cfg.Database.DSN
	if cfg.Database.Secret != "" {
		resolver, err := secrets.NewSecretsManagerResolver(ctx, cfg.Database.Region)
		if err != nil {
			return nil, err
		}
		creds, err := resolver.Resolve(ctx, cfg.Database.Secret)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to resolve secret %s", cfg.Database.Secret)
		}
		dsn = creds.DSN(cfg.Database.ConnectTimeout)
		log.Debug("resolved database credentials", "secret", cfg.Database.Secret, "host", creds.Host, "database", creds.DBName)
	}
	if dsn == "" {
		log.Info("no database configured, schema checks will be skipped")
		return nil, nil
	}

	pool, err := db.Open(ctx, dsn, cfg.Database.ConnectTimeout)
	if err != nil {
		return nil, err
	}
	cursor, err := db.NewCursor(ctx, pool, cfg.Database.QueryTimeout)
	if err != nil {
		db.CloseWithErr(pool, "database")
		return nil, err
	}
	return &connection{
		cursor: cursor,
		close: func() {
			db.CloseWithErr(cursor, "cursor")
			db.CloseWithErr(pool, "database")
		},
	}, nil
}

// reviewerOptions builds the advisory and knowledge options from cfg.
func reviewerOptions(cfg *config.Config, log *slog.Logger) ([]reviewer.Option, error) {
	opts := []reviewer.Option{reviewer.WithConfig(cfg), reviewer.WithLogger(log)}

	if cfg.Advisory.Enabled {
		client, err := advisor.NewOpenAIClient(advisor.OpenAIOptions{
			APIKey:    os.Getenv(cfg.Advisory.APIKeyEnv),
			BaseURL:   cfg.Advisory.BaseURL,
			Model:     cfg.Advisory.Model,
			MaxTokens: cfg.Advisory.MaxTokens,
			Timeout:   cfg.Advisory.Timeout,
		})
		if err != nil {
			log.Warn("advisory checks disabled", logger.Error(err))
		} else {
			opts = append(opts, reviewer.WithAdvisory(client))
		}
	}

	if cfg.Knowledge.File != "" {
		knowledge, err := advisor.LoadFileKnowledge(cfg.Knowledge.File)
		if err != nil {
			return nil, err
		}
		opts = append(opts, reviewer.WithKnowledge(knowledge))
	}
	return opts, nil
}
