package app

import (
	"context"
	"fmt"

	credentialDomain "github.com/allisson/credguard/internal/credential/domain"
	credentialHTTP "github.com/allisson/credguard/internal/credential/http"
	credentialRepository "github.com/allisson/credguard/internal/credential/repository"
	credentialService "github.com/allisson/credguard/internal/credential/service"
	credentialUsecase "github.com/allisson/credguard/internal/credential/usecase"
)

// Keychain returns the master keychain, loaded from the KMS when configured
// and from plain environment variables otherwise.
func (c *Container) Keychain() (*credentialDomain.MasterKeyChain, error) {
	var err error
	c.keychainInit.Do(func() {
		c.keychain, err = c.initKeychain()
		if err != nil {
			c.initErrors["keychain"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keychain"]; exists {
		return nil, storedErr
	}
	return c.keychain, nil
}

// EnvelopeRepository returns the encrypted envelope repository based on the
// configured storage backend.
func (c *Container) EnvelopeRepository() (credentialUsecase.EnvelopeRepository, error) {
	var err error
	c.envelopeRepoInit.Do(func() {
		c.envelopeRepo, err = c.initEnvelopeRepository()
		if err != nil {
			c.initErrors["envelopeRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["envelopeRepo"]; exists {
		return nil, storedErr
	}
	return c.envelopeRepo, nil
}

// Store returns the credential store.
func (c *Container) Store() (credentialUsecase.Store, error) {
	var err error
	c.storeInit.Do(func() {
		c.store, err = c.initStore()
		if err != nil {
			c.initErrors["store"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["store"]; exists {
		return nil, storedErr
	}
	return c.store, nil
}

// FingerprintService returns the credential fingerprint service.
func (c *Container) FingerprintService() (credentialService.FingerprintService, error) {
	c.fingerprintServiceInit.Do(func() {
		c.fingerprintService = credentialService.NewFingerprintService()
	})
	return c.fingerprintService, nil
}

// Manager returns the credential context manager.
func (c *Container) Manager() (credentialUsecase.Manager, error) {
	var err error
	c.managerInit.Do(func() {
		c.manager, err = c.initManager()
		if err != nil {
			c.initErrors["manager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["manager"]; exists {
		return nil, storedErr
	}
	return c.manager, nil
}

// ContextHandler returns the credential context HTTP handler.
func (c *Container) ContextHandler() (*credentialHTTP.ContextHandler, error) {
	var err error
	c.contextHandlerInit.Do(func() {
		c.contextHandler, err = c.initContextHandler()
		if err != nil {
			c.initErrors["contextHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["contextHandler"]; exists {
		return nil, storedErr
	}
	return c.contextHandler, nil
}

// initKeychain loads master key material.
func (c *Container) initKeychain() (*credentialDomain.MasterKeyChain, error) {
	if c.config.KMSProvider != "" && c.config.KMSKeyURI != "" {
		keychain, err := credentialService.LoadMasterKeyChainFromKMS(
			context.Background(),
			credentialService.NewKMSService(),
			c.config.KMSKeyURI,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load master keys from KMS: %w", err)
		}
		return keychain, nil
	}

	keychain, err := credentialDomain.LoadMasterKeyChainFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load master keys from environment: %w", err)
	}
	return keychain, nil
}

// initEnvelopeRepository selects the storage backend.
func (c *Container) initEnvelopeRepository() (credentialUsecase.EnvelopeRepository, error) {
	switch c.config.StorageBackend {
	case "filesystem":
		repo, err := credentialRepository.NewFilesystemEnvelopeRepository(c.config.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create filesystem envelope repository: %w", err)
		}
		return repo, nil
	case "bbolt":
		repo, err := credentialRepository.NewBBoltEnvelopeRepository(c.config.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create bbolt envelope repository: %w", err)
		}
		c.envelopeRepoCloser = repo
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", c.config.StorageBackend)
	}
}

// initStore creates the credential store with the configured AEAD algorithm.
func (c *Container) initStore() (credentialUsecase.Store, error) {
	repo, err := c.EnvelopeRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get envelope repository for store: %w", err)
	}

	keychain, err := c.Keychain()
	if err != nil {
		return nil, fmt.Errorf("failed to get keychain for store: %w", err)
	}

	algorithm, err := parseAlgorithm(c.config.EncryptionAlgorithm)
	if err != nil {
		return nil, err
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for store: %w", err)
	}

	store := credentialUsecase.NewStore(
		repo,
		credentialService.NewAEADManager(),
		keychain,
		algorithm,
		c.Logger(),
	)

	return credentialUsecase.NewStoreWithMetrics(store, businessMetrics), nil
}

// initManager creates the context manager with the configured limits.
func (c *Container) initManager() (credentialUsecase.Manager, error) {
	store, err := c.Store()
	if err != nil {
		return nil, fmt.Errorf("failed to get store for manager: %w", err)
	}

	fingerprints, err := c.FingerprintService()
	if err != nil {
		return nil, fmt.Errorf("failed to get fingerprint service for manager: %w", err)
	}

	auditUseCase, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for manager: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for manager: %w", err)
	}

	manager := credentialUsecase.NewManager(
		store,
		fingerprints,
		auditUseCase,
		credentialUsecase.ManagerConfig{
			RateLimitWindow:         c.config.RateLimitWindow,
			MaxTransitionsPerWindow: c.config.MaxTransitionsPerWindow,
			ContextTTL:              c.config.ContextTTL,
		},
		c.Logger(),
	)

	return credentialUsecase.NewManagerWithMetrics(manager, businessMetrics), nil
}

// initContextHandler creates the context HTTP handler.
func (c *Container) initContextHandler() (*credentialHTTP.ContextHandler, error) {
	manager, err := c.Manager()
	if err != nil {
		return nil, fmt.Errorf("failed to get manager for context handler: %w", err)
	}

	store, err := c.Store()
	if err != nil {
		return nil, fmt.Errorf("failed to get store for context handler: %w", err)
	}

	return credentialHTTP.NewContextHandler(manager, store, c.Logger()), nil
}

// parseAlgorithm maps the configured algorithm name to its domain constant.
func parseAlgorithm(name string) (credentialDomain.Algorithm, error) {
	switch name {
	case string(credentialDomain.AESGCM), "":
		return credentialDomain.AESGCM, nil
	case string(credentialDomain.ChaCha20):
		return credentialDomain.ChaCha20, nil
	default:
		return "", fmt.Errorf("unsupported encryption algorithm: %s", name)
	}
}
