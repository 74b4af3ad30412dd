package app

import (
	"fmt"

	conflictHTTP "github.com/allisson/credguard/internal/conflict/http"
	conflictRepository "github.com/allisson/credguard/internal/conflict/repository"
	conflictUsecase "github.com/allisson/credguard/internal/conflict/usecase"
)

// Resolver returns the conflict resolver, or nil when no upstream API is
// configured.
func (c *Container) Resolver() (conflictUsecase.Resolver, error) {
	var err error
	c.resolverInit.Do(func() {
		if c.config.RemoteAPIBaseURL == "" {
			return
		}
		c.resolver, err = c.initResolver()
		if err != nil {
			c.initErrors["resolver"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["resolver"]; exists {
		return nil, storedErr
	}
	return c.resolver, nil
}

// ResourceHandler returns the resource HTTP handler, or nil when no upstream
// API is configured.
func (c *Container) ResourceHandler() (*conflictHTTP.ResourceHandler, error) {
	var err error
	c.resourceHandlerInit.Do(func() {
		resolver, resolverErr := c.Resolver()
		if resolverErr != nil {
			err = resolverErr
			c.initErrors["resourceHandler"] = err
			return
		}
		if resolver == nil {
			return
		}
		c.resourceHandler = conflictHTTP.NewResourceHandler(resolver, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["resourceHandler"]; exists {
		return nil, storedErr
	}
	return c.resourceHandler, nil
}

// initResolver creates the resolver over the upstream provisioning API.
func (c *Container) initResolver() (conflictUsecase.Resolver, error) {
	auditUseCase, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for resolver: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for resolver: %w", err)
	}

	client := conflictRepository.NewHTTPRemoteClient(
		c.config.RemoteAPIBaseURL,
		c.config.RemoteAPITimeout,
	)

	resolver := conflictUsecase.NewResolver(client, auditUseCase, c.Logger())

	return conflictUsecase.NewResolverWithMetrics(resolver, businessMetrics), nil
}
