package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables honoured on top of the file configuration.
const (
	EnvPostsSourceDir = "POSTS_SOURCE_DIR"
	EnvBuildBranch    = "BUILD_BRANCH"
	EnvBuildRemote    = "BUILD_REMOTE"
	EnvSkipBuildPush  = "SKIP_BUILD_PUSH"
	EnvNATSURL        = "SITEBUILDER_NATS_URL"
	EnvLogLevel       = "SITEBUILDER_LOG_LEVEL"
	EnvDeployToken    = "SITEBUILDER_DEPLOY_TOKEN"
)

// envFiles are loaded in order; earlier files win because godotenv never
// overrides a variable that is already set.
var envFiles = []string{".env.local", ".env"}

func loadEnvFiles() error {
	var errs []error
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvPostsSourceDir); v != "" {
		cfg.Posts.SourceDir = v
	}
	if v := os.Getenv(EnvBuildBranch); v != "" {
		cfg.Deploy.Branch = v
	}
	if v := os.Getenv(EnvBuildRemote); v != "" {
		cfg.Deploy.Remote = v
	}
	if IsTruthy(os.Getenv(EnvSkipBuildPush)) {
		cfg.Deploy.Skip = true
	}
	if v := os.Getenv(EnvNATSURL); v != "" {
		cfg.Notify.NATSURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = LogLevel(v)
	}
	if v := os.Getenv(EnvDeployToken); v != "" {
		cfg.Deploy.Token = v
	}
}

// IsTruthy reports whether an environment flag value means "on" (1 or true).
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true":
		return true
	}
	return false
}
