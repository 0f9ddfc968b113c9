package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("NOTIFIER_DRIVER", "log")
	t.Setenv("APP_TIMEZONE", "America/Chicago")

	require.NoError(t, Load(""))
	c := Get()

	assert.Equal(t, "0 9 * * *", c.ReminderCron)
	assert.Equal(t, "/api", c.HttpBaseRequestUrl)
	assert.Equal(t, 1, c.SweepConcurrency)
	assert.Greater(t, c.DispatchLockTTL, 2*c.NotifierTimeout)
	assert.Equal(t, "America/Chicago", c.Location().String())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			AppTimezone:      "UTC",
			NotifierDriver:   NotifierDriverLog,
			NotifierTimeout:  5 * time.Second,
			DispatchLockTTL:  30 * time.Second,
			SweepConcurrency: 1,
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("unknown timezone", func(t *testing.T) {
		c := valid()
		c.AppTimezone = "Mars/Olympus"
		assert.Error(t, c.Validate())
	})

	t.Run("http driver needs a provider url", func(t *testing.T) {
		c := valid()
		c.NotifierDriver = NotifierDriverHTTP
		assert.Error(t, c.Validate())

		c.NotifierProviderUrl = "http://localhost:8081"
		assert.NoError(t, c.Validate())
	})

	t.Run("unknown driver", func(t *testing.T) {
		c := valid()
		c.NotifierDriver = "carrier-pigeon"
		assert.Error(t, c.Validate())
	})

	t.Run("sweep concurrency", func(t *testing.T) {
		c := valid()
		c.SweepConcurrency = 0
		assert.Error(t, c.Validate())
	})

	t.Run("lock must outlive both channel sends", func(t *testing.T) {
		c := valid()
		c.NotifierTimeout = 20 * time.Second
		assert.Error(t, c.Validate())

		c.DispatchLockTTL = 41 * time.Second
		assert.NoError(t, c.Validate())
	})
}
