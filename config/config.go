// Package config resolves the credential and client settings from flags,
// an optional .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/lexandro/valyu-mcp/client"
)

const (
	APIKeyEnv      = "VALYU_API_KEY"
	BaseURLEnv     = "VALYU_API_URL"
	DefaultEnvFile = ".env"
)

var ErrMissingAPIKey = errors.New(APIKeyEnv + " environment variable is required")

// Options carries values given on the command line. Zero values mean "not set".
type Options struct {
	EnvFile         string
	BaseURL         string
	Timeout         time.Duration
	MaxResponseSize int64
	ProxyURL        string
	InsecureTLS     bool
	Version         string
}

// LoadEnvFile exports the variables in path into the process environment.
// Variables that are already set are left alone. A missing file is only an
// error when the caller asked for that file explicitly.
func LoadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// Load builds the client configuration. lookupEnv is usually os.LookupEnv.
func Load(opts Options, lookupEnv func(string) (string, bool)) (client.Config, error) {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}

	apiKey, _ := lookupEnv(APIKeyEnv)
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return client.Config{}, ErrMissingAPIKey
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL, _ = lookupEnv(BaseURLEnv)
	}

	userAgent := client.DefaultUserAgent
	if opts.Version != "" {
		userAgent += "/" + opts.Version
	}

	return client.Config{
		APIKey:          apiKey,
		BaseURL:         strings.TrimSpace(baseURL),
		Timeout:         opts.Timeout,
		MaxResponseSize: opts.MaxResponseSize,
		ProxyURL:        opts.ProxyURL,
		InsecureTLS:     opts.InsecureTLS,
		UserAgent:       userAgent,
	}, nil
}
