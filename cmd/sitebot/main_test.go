package main

import (
	"testing"

	"github.com/poiesic/sitebot/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, core.ID(42), id)

	_, err = parseID("")
	assert.Error(t, err)

	_, err = parseID("0")
	assert.Error(t, err)

	_, err = parseID("not-a-number")
	assert.Error(t, err)
}

func TestSetupLogger(t *testing.T) {
	app := &cli.App{
		Name: "sitebot",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info"},
		},
		Before: setupLogger,
		Action: func(c *cli.Context) error { return nil },
	}

	t.Run("valid levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "WARN"} {
			err := app.Run([]string{"sitebot", "--log-level", level})
			assert.NoError(t, err, "level %q", level)
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		err := app.Run([]string{"sitebot", "--log-level", "verbose"})
		assert.Error(t, err)
	})
}
