package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	app := &cli.App{
		Name: "askdocs",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info"},
		},
		Before: setupLogger,
		Action: func(c *cli.Context) error { return nil },
	}

	t.Run("valid levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "WARN"} {
			err := app.Run([]string{"askdocs", "--log-level", level})
			assert.NoError(t, err, "level %q should be accepted", level)
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		err := app.Run([]string{"askdocs", "--log-level", "verbose"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestIngestCommandRequiresFiles(t *testing.T) {
	app := &cli.App{
		Name: "askdocs",
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Action: ingestCommand,
				Flags:  append(commonFlags(), &cli.StringFlag{Name: "title"}),
			},
		},
	}

	err := app.Run([]string{"askdocs", "ingest"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one file argument is required")
}

func TestReindexCommandValidatesFlags(t *testing.T) {
	app := &cli.App{
		Name: "askdocs",
		Commands: []*cli.Command{
			{
				Name:   "reindex",
				Action: reindexCommand,
				Flags: append(commonFlags(),
					&cli.IntFlag{Name: "report-interval", Value: 10},
					&cli.IntFlag{Name: "max-retries", Value: 3},
					&cli.DurationFlag{Name: "retry-delay"},
				),
			},
		},
	}

	t.Run("report-interval must be positive", func(t *testing.T) {
		err := app.Run([]string{"askdocs", "reindex", "--data", t.TempDir(), "--report-interval", "0"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "report-interval")
	})

	t.Run("max-retries must be positive", func(t *testing.T) {
		err := app.Run([]string{"askdocs", "reindex", "--data", t.TempDir(), "--max-retries", "0"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max-retries")
	})
}
