//go:build integration

package integration

import (
	"fmt"
	"os"
	"testing"
	"time"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	NATSURL   string
	RedisAddr string
	APIHost   string
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		NATSURL:   os.Getenv("LIBRARY_TEST_NATS_URL"),
		RedisAddr: os.Getenv("LIBRARY_TEST_REDIS_ADDR"),
		APIHost:   os.Getenv("LIBRARY_TEST_API_HOST"),
	}
}

// SkipWithoutNATS skips the test when no NATS server is configured.
func (config *TestConfig) SkipWithoutNATS(t *testing.T) {
	t.Helper()

	if config.NATSURL == "" {
		t.Skip("LIBRARY_TEST_NATS_URL not set, skipping integration test")
	}
}

// SkipWithoutRedis skips the test when no Redis server is configured.
func (config *TestConfig) SkipWithoutRedis(t *testing.T) {
	t.Helper()

	if config.RedisAddr == "" {
		t.Skip("LIBRARY_TEST_REDIS_ADDR not set, skipping integration test")
	}
}

// SkipWithoutAPI skips the test when no library API is configured.
func (config *TestConfig) SkipWithoutAPI(t *testing.T) {
	t.Helper()

	if config.APIHost == "" {
		t.Skip("LIBRARY_TEST_API_HOST not set, skipping integration test")
	}
}

// GenerateTestName generates a unique name for test resources.
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
