package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
database:
  host: db.internal
  port: 6432
  user: cart
  password: secret
  database: cart
orders:
  timezone: Europe/Berlin
  pickup_secret: 0123456789abcdef0123
  release_stock_on_reject: true
http:
  port: 9090
  read_timeout: 5s
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode, "unset keys keep defaults")
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.True(t, cfg.Orders.ReleaseStockOnReject)
	assert.False(t, cfg.Orders.ReleaseStockOnDelete)

	loc, err := cfg.Orders.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("FOODCART_DATABASE_HOST", "from-env")
	t.Setenv("FOODCART_HTTP_PORT", "7070")
	t.Setenv("FOODCART_ORDERS_RELEASE_STOCK_ON_DELETE", "true")

	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Database.Host)
	assert.Equal(t, 7070, cfg.HTTP.Port)
	assert.True(t, cfg.Orders.ReleaseStockOnDelete)
}

func TestMissingFileUsesDefaultsAndEnv(t *testing.T) {
	t.Setenv("FOODCART_PICKUP_SECRET", "a-long-enough-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "a-long-enough-secret", cfg.Orders.PickupSecret)
}

func TestInvalidEnvValue(t *testing.T) {
	t.Setenv("FOODCART_DATABASE_PORT", "not-a-number")

	_, err := Load(writeConfig(t, sample))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FOODCART_DATABASE_PORT")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pickup_secret")

	cfg.Orders.PickupSecret = "0123456789abcdef"
	require.NoError(t, cfg.Validate())

	cfg.Orders.Timezone = "Mars/Olympus"
	require.Error(t, cfg.Validate())
}

func TestMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "database: [unterminated"))
	require.Error(t, err)
}

func TestDSNParsesWithAwkwardPasswords(t *testing.T) {
	t.Setenv("PGPASSWORD", "")
	t.Setenv("PGPASSFILE", filepath.Join(t.TempDir(), "none"))

	cases := []struct {
		name     string
		password string
	}{
		{"empty", ""},
		{"space", "correct horse"},
		{"quotes and symbols", `it's "q" @/:?#%=`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := Default().Database
			db.Password = tc.password

			poolCfg, err := pgxpool.ParseConfig(db.DSN())
			require.NoError(t, err, db.DSN())

			conn := poolCfg.ConnConfig
			assert.Equal(t, "localhost", conn.Host)
			assert.Equal(t, uint16(5432), conn.Port)
			assert.Equal(t, "foodcart", conn.User)
			assert.Equal(t, "foodcart", conn.Database)
			assert.Equal(t, tc.password, conn.Password)
			assert.Nil(t, conn.TLSConfig)
		})
	}
}
