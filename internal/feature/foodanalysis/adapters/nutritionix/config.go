// Package nutritionix provides a client for the Nutritionix natural language nutrients API.
package nutritionix

import (
	"os"
	"strconv"
	"time"
)

// DefaultBaseURL is the production Nutritionix API endpoint.
const DefaultBaseURL = "https://trackapi.nutritionix.com"

// Config holds configuration for the Nutritionix API client.
type Config struct {
	AppID     string        // Sent as x-app-id
	AppKey    string        // Sent as x-app-key
	BaseURL   string        // Base URL for the API (e.g., "https://trackapi.nutritionix.com")
	Timeout   time.Duration // HTTP request timeout
	RateLimit int           // Max requests per minute

	DialTimeout         time.Duration // TCP connect timeout
	TLSHandshakeTimeout time.Duration
}

// LoadConfig loads Nutritionix configuration from environment variables.
func LoadConfig() Config {
	cfg := Config{
		AppID:     os.Getenv("NUTRITIONIX_APP_ID"),
		AppKey:    os.Getenv("NUTRITIONIX_APP_KEY"),
		BaseURL:   os.Getenv("NUTRITIONIX_BASE_URL"),
		Timeout:   8 * time.Second,
		RateLimit: 50,

		DialTimeout:         5 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if d, err := time.ParseDuration(os.Getenv("NUTRITIONIX_TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}
	if d, err := time.ParseDuration(os.Getenv("NUTRITIONIX_DIAL_TIMEOUT")); err == nil && d > 0 {
		cfg.DialTimeout = d
	}
	if d, err := time.ParseDuration(os.Getenv("NUTRITIONIX_TLS_TIMEOUT")); err == nil && d > 0 {
		cfg.TLSHandshakeTimeout = d
	}
	if n, err := strconv.Atoi(os.Getenv("NUTRITIONIX_RATE_LIMIT")); err == nil && n > 0 {
		cfg.RateLimit = n
	}
	return cfg
}
