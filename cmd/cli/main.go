package main

import (
	"os"
	"strings"

	"github.com/rosadoagency/appointment-api/internal/config"
	"github.com/rosadoagency/appointment-api/pkg/logger"
	"github.com/rosadoagency/appointment-api/pkg/pg"
)

// main.go [up|status] --env=.env --dir=./migrations
func main() {
	defer logger.Sync()

	err := config.Load(getEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Get()

	pgConf := pg.Config{
		User:     cfg.PostgresWriteUser,
		Host:     cfg.PostgresWriteHost,
		Port:     cfg.PostgresWritePort,
		Password: cfg.PostgresWritePassword,
		Database: cfg.PostgresWriteDatabase,
		SSLMode:  cfg.PostgresSSLMode,
	}
	dir := getMigrationPath()

	switch command() {
	case "status":
		err = pg.MigrationStatus(pgConf, dir)
	case "up":
		err = pg.Migrate(pgConf, dir)
	default:
		logger.Error("unknown command, expected up or status", "command", command())
		os.Exit(2)
	}
	if err != nil {
		logger.Error("migration: command failed", "command", command(), "error", err)
		os.Exit(1)
	}
}

// command is the first argument that is not a flag, up by default.
func command() string {
	for _, v := range os.Args[1:] {
		if !strings.HasPrefix(v, "-") {
			return v
		}
	}
	return "up"
}

func getEnvPath() string {
	if p, ok := flagValue("--env="); ok {
		if _, err := os.Stat(p); err != nil {
			logger.Error("failed to open the passed env file", "error", err)
			return ""
		}
		return p
	}
	if _, err := os.Stat(".env"); err != nil {
		return ""
	}
	return ".env"
}

func getMigrationPath() string {
	if p, ok := flagValue("--dir="); ok {
		return p
	}
	return "./migrations"
}

func flagValue(prefix string) (string, bool) {
	for _, v := range os.Args {
		if strings.HasPrefix(v, prefix) {
			return strings.TrimPrefix(v, prefix), true
		}
	}
	return "", false
}
