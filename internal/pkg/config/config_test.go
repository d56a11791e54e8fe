package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 8086, cfg.Server.Port)
	assert.Equal(t, "masterdata.changes", cfg.NATS.ChangeSubjectPrefix)
	assert.Equal(t, 10*time.Second, cfg.Redis.LockTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOCK_TTL", "3s")
	t.Setenv("DB_USER", "gov")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_HOST", "db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Redis.LockTTL)
	assert.Equal(t, "postgres://gov:secret@db:5432/md_governance?sslmode=disable", cfg.Database.DSN())
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	tests := []struct {
		name string
		env  string
		val  string
	}{
		{"port with letters", "HTTP_PORT", "80a"},
		{"non-numeric pool size", "DB_MAX_CONNS", "ten"},
		{"unparseable duration", "LOCK_TTL", "ten seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STORE_DRIVER", "memory")
			t.Setenv(tt.env, tt.val)

			cfg, err := Load()
			require.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoadIgnoresEmptyValues(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("GRPC_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9086, cfg.Server.GRPCPort)
}
