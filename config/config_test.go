package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "db"
redis:
  host: "localhost"
  port: 6379
kafka:
  host: "localhost"
  port: 9092
  shipment_submitted_topic_name: "shipment.submitted"
parceltrack:
  http_addr: ":8080"
  kafka_consumer_group: "parcel-api"
  snapshot_ttl_seconds: 600
  submit_rate_limit_per_minute: 60
  cors_allowed_origins:
    - "http://localhost:3000"
`), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "shipment.submitted", cfg.Kafka.ShipmentSubmittedTopicName)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, ":8080", cfg.ParcelTrack.HTTPAddr)
	require.Equal(t, 600, cfg.ParcelTrack.SnapshotTTLSeconds)
	require.Equal(t, []string{"http://localhost:3000"}, cfg.ParcelTrack.CORSAllowedOrigins)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, Username: "u", Password: "p", DBName: "parcels"}
	require.Equal(t, "postgres://u:p@db:5432/parcels?sslmode=disable", c.DSN())
}
