package app

import (
	"fmt"

	auditHTTP "github.com/allisson/credguard/internal/audit/http"
	auditRepository "github.com/allisson/credguard/internal/audit/repository"
	auditUsecase "github.com/allisson/credguard/internal/audit/usecase"
)

// AuditRepository returns the audit event repository based on the configured
// backend.
func (c *Container) AuditRepository() (auditUsecase.EventRepository, error) {
	var err error
	c.auditRepoInit.Do(func() {
		c.auditRepo, err = c.initAuditRepository()
		if err != nil {
			c.initErrors["auditRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditRepo"]; exists {
		return nil, storedErr
	}
	return c.auditRepo, nil
}

// AuditUseCase returns the shared audit sink.
func (c *Container) AuditUseCase() (auditUsecase.UseCase, error) {
	var err error
	c.auditUseCaseInit.Do(func() {
		c.auditUseCase, err = c.initAuditUseCase()
		if err != nil {
			c.initErrors["auditUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditUseCase"]; exists {
		return nil, storedErr
	}
	return c.auditUseCase, nil
}

// AuditHandler returns the audit event HTTP handler.
func (c *Container) AuditHandler() (*auditHTTP.EventHandler, error) {
	var err error
	c.auditHandlerInit.Do(func() {
		c.auditHandler, err = c.initAuditHandler()
		if err != nil {
			c.initErrors["auditHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditHandler"]; exists {
		return nil, storedErr
	}
	return c.auditHandler, nil
}

// initAuditRepository selects the audit backend.
func (c *Container) initAuditRepository() (auditUsecase.EventRepository, error) {
	switch c.config.AuditBackend {
	case "file":
		repo, err := auditRepository.NewFileEventRepository(c.config.AuditFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create file audit repository: %w", err)
		}
		return repo, nil
	case "postgres":
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for audit repository: %w", err)
		}
		return auditRepository.NewPostgreSQLEventRepository(db), nil
	case "mysql":
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for audit repository: %w", err)
		}
		return auditRepository.NewMySQLEventRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported audit backend: %s", c.config.AuditBackend)
	}
}

// initAuditUseCase creates the audit sink with a signing key derived from the
// active master key.
func (c *Container) initAuditUseCase() (auditUsecase.UseCase, error) {
	repo, err := c.AuditRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit repository for audit use case: %w", err)
	}

	return auditUsecase.NewUseCase(repo, c.auditSigner(), c.signingKey(), c.Logger()), nil
}

// initAuditHandler creates the audit HTTP handler.
func (c *Container) initAuditHandler() (*auditHTTP.EventHandler, error) {
	useCase, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for audit handler: %w", err)
	}

	return auditHTTP.NewEventHandler(useCase, c.Logger()), nil
}
