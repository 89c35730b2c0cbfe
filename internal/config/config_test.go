package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")

	logger := zerolog.Nop()
	cfg := Load(&logger)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "pockit", cfg.MongoDatabase)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Contains(t, cfg.CORSAllowedOrigins, "http://localhost:5173")
}

func TestValidateRequiresMongoURI(t *testing.T) {
	t.Parallel()

	cfg := &Config{GoogleClientID: "client-id"}
	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_URI")
}

func TestValidateRequiresGoogleClientID(t *testing.T) {
	t.Parallel()

	cfg := &Config{MongoURI: "mongodb://localhost:27017"}
	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_CLIENT_ID")
}
