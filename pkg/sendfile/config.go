package sendfile

import (
	"os"
	"strconv"
	"time"

	"github.com/docker/go-units"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/gsteemso/ten4sendfile/pkg/types"
)

const (
	chunkSizeEnv     = "TEN4SENDFILE_CHUNK_SIZE"
	maxRetriesEnv    = "TEN4SENDFILE_MAX_RETRIES"
	retryIntervalEnv = "TEN4SENDFILE_RETRY_INTERVAL"
)

// Config carries the tunables of a transfer. Retry count, backoff interval
// and chunk size are injected here rather than hidden in globals so that
// behavior stays deterministic and testable. Start from DefaultConfig; the
// zero value is rejected by Transmit.
type Config struct {
	// ChunkSize bounds each file read and the first attempt of each
	// send.
	ChunkSize int

	// MaxRetries bounds how often a transient failure is retried.
	MaxRetries int

	// RetryInterval is slept between retries of a transient failure.
	RetryInterval time.Duration

	// Syscalls overrides the platform bindings. Nil means the host
	// kernel.
	Syscalls types.Syscalls
}

func DefaultConfig() Config {
	return Config{
		ChunkSize:     types.DefaultChunkSize,
		MaxRetries:    types.DefaultMaxRetries,
		RetryInterval: types.DefaultRetryInterval,
	}
}

// ConfigFromEnv returns DefaultConfig with any of the TEN4SENDFILE_*
// environment overrides applied. The chunk size accepts human-readable
// sizes ("64k", "1m"). Invalid values are collected into a single error
// and the default is kept for each.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	var errs error

	if v := os.Getenv(chunkSizeEnv); v != "" {
		size, err := units.RAMInBytes(v)
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "invalid %v %q", chunkSizeEnv, v))
		} else if size <= 0 || size > int64(maxConfigChunkSize) {
			errs = multierr.Append(errs, errors.Errorf("%v %q out of range", chunkSizeEnv, v))
		} else {
			cfg.ChunkSize = int(size)
		}
	}

	if v := os.Getenv(maxRetriesEnv); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = multierr.Append(errs, errors.Errorf("invalid %v %q", maxRetriesEnv, v))
		} else {
			cfg.MaxRetries = n
		}
	}

	if v := os.Getenv(retryIntervalEnv); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			errs = multierr.Append(errs, errors.Errorf("invalid %v %q", retryIntervalEnv, v))
		} else {
			cfg.RetryInterval = d
		}
	}

	return cfg, errs
}

// maxConfigChunkSize caps the relay buffer a caller can ask for via the
// environment.
const maxConfigChunkSize = 64 << 20

func (c Config) sys() types.Syscalls {
	if c.Syscalls != nil {
		return c.Syscalls
	}
	return platform{}
}
