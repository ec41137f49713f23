package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_DiscoveryOverrides(t *testing.T) {
	os.Setenv("NEARBY_RADIUS_METERS", "2500")
	os.Setenv("TOP_MIN_REVIEWS", "3")
	defer func() {
		os.Unsetenv("NEARBY_RADIUS_METERS")
		os.Unsetenv("TOP_MIN_REVIEWS")
	}()

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 2500.0, cfg.Discovery.NearbyRadiusMeters)
	assert.Equal(t, 3, cfg.Discovery.TopMinReviews)
}

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("NEARBY_RADIUS_METERS")
	os.Unsetenv("TOP_MIN_REVIEWS")
	os.Unsetenv("SEARCH_LIMIT")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 10000.0, cfg.Discovery.NearbyRadiusMeters)
	assert.Equal(t, 10, cfg.Discovery.NearbyLimit)
	assert.Equal(t, 10, cfg.Discovery.TopLimit)
	assert.Equal(t, 2, cfg.Discovery.TopMinReviews)
	assert.Equal(t, 5, cfg.Discovery.SearchLimit)
	assert.Equal(t, "storedir", cfg.Database.Database)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db", Port: 5432, User: "app", Password: "pw",
		Database: "storedir", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=storedir sslmode=disable", cfg.DatabaseDSN())
}
