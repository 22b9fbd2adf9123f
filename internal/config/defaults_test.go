package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultServerHost, cfg.Server.Host)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultDBName, cfg.Database.Postgres.DBName)
	assert.Equal(t, DefaultDBMaxConns/2, cfg.Database.Postgres.MaxIdleConns)
	assert.Equal(t, []string{DefaultKafkaBroker}, cfg.Messaging.Kafka.Brokers)
	assert.Equal(t, "earliest", cfg.Messaging.Kafka.AutoOffsetReset)
	assert.Equal(t, []string{"stdout"}, cfg.Logging.OutputPaths)
	assert.Equal(t, 45, cfg.Scoring.InitialMaxScore)
	assert.Equal(t, 100, cfg.Scoring.AdvancedMaxScore)
	assert.Equal(t, 2, cfg.Scoring.WeakestCount)
	assert.NoError(t, cfg.Validate())
}

func TestApplyDefaults_PreserveExistingValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Scoring.AdvancedMaxScore = 75
	cfg.Logging.Format = "console"
	ApplyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 75, cfg.Scoring.AdvancedMaxScore)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}
