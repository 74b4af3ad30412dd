package commands

import (
	"context"
	"fmt"

	"github.com/allisson/credguard/internal/app"
	"github.com/allisson/credguard/internal/config"
)

// RunHealthCheck performs an encrypt-store-retrieve round trip against the
// configured storage backend and reports the result. Exits non-zero when the
// round trip fails, making it usable as a container health probe.
func RunHealthCheck(ctx context.Context) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)

	logger := container.Logger()
	defer closeContainer(container, logger)

	store, err := container.Store()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	if !store.HealthCheck(ctx) {
		return fmt.Errorf("storage backend %q is unhealthy", cfg.StorageBackend)
	}

	fmt.Printf("storage backend %q: ok\n", cfg.StorageBackend)
	return nil
}
