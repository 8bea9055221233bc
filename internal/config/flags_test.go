package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_parseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("overrides from flags", func(t *testing.T) {
		os.Args = []string{"testbin",
			"-a", ":9090",
			"-o", "https://vault.example.com",
			"-k", "postgres",
			"-d", "postgres://other/db",
			"-t", "15",
			"-b", "mybucket",
		}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFlags(cfg)

		assert.Equal(t, ":9090", cfg.EndpointAddrHTTP)
		assert.Equal(t, "https://vault.example.com", cfg.PublicOrigin)
		assert.Equal(t, StoragePostgres, cfg.Storage)
		assert.Equal(t, "postgres://other/db", cfg.DatabaseDSN)
		assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
		assert.Equal(t, "mybucket", cfg.S3Bucket)
	})

	t.Run("absent flags keep defaults", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFlags(cfg)

		assert.Equal(t, ":8080", cfg.EndpointAddrHTTP)
		assert.Equal(t, StorageMemory, cfg.Storage)
		assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	})

	t.Run("foreign flags are ignored", func(t *testing.T) {
		os.Args = []string{"testbin", "-zz", "1", "-a", ":7070"}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFlags(cfg)

		assert.Equal(t, ":7070", cfg.EndpointAddrHTTP)
	})
}
