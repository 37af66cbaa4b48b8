package bootstrap

import (
	"log/slog"

	"github.com/target/mmk-jobqueue/internal/data/cryptoutil"
)

// CreateEncryptor builds the AES-GCM encryptor for aggregator bearer tokens from a
// comma-separated key list (see cryptoutil.ParseKeys).
// Returns a noop encryptor if the key is empty or invalid (with warning log).
//
//nolint:ireturn // Returning interface is intentional for encryptor abstraction
func CreateEncryptor(keys string, logger *slog.Logger) cryptoutil.Encryptor {
	if logger == nil {
		logger = slog.Default()
	}
	if keys == "" {
		logger.Warn("encryption key is empty, using noop encryptor")
		return cryptoutil.NoopEncryptor{}
	}

	enc, err := cryptoutil.ParseKeys(keys)
	if err != nil {
		logger.Warn("failed to create encryptor, using noop encryptor", "error", err)
		return cryptoutil.NoopEncryptor{}
	}

	return enc
}
