package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vicoolz/palimpseste/internal/config"
	"github.com/vicoolz/palimpseste/internal/logging"
	"github.com/vicoolz/palimpseste/internal/storage"
)

// workspace is what the non-interactive commands share: configuration,
// stderr logging and the storage backend.
type workspace struct {
	cfg     config.Config
	backend storage.Backend
	closers []func() error
}

func openWorkspace(opts *RootOptions) (*workspace, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logCloser, err := logging.Configure(logging.ProfileCLI, "")
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	backend, closeBackend, err := storage.Open(cfg.Storage, cfg.StateDir)
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return &workspace{
		cfg:     cfg,
		backend: backend,
		closers: []func() error{closeBackend, logCloser.Close},
	}, nil
}

func (w *workspace) Close() error {
	var first error
	for _, fn := range w.closers {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
