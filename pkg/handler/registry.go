package handler

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goran-ethernal/ChainDemux/internal/logger"
	"github.com/goran-ethernal/ChainDemux/pkg/config"
)

// Application bundles everything the engine needs to index one application:
// its handler versions and the store hosting its state.
type Application struct {
	Versions []Version
	Store    StateStore

	// Matcher overrides the configured action matcher when set.
	Matcher ActionMatcher

	// Close releases resources held by the application, if any.
	Close func() error
}

// Factory is a function that creates a new application instance.
type Factory func(cfg config.HandlerConfig, log *logger.Logger) (*Application, error)

var (
	registry = make(map[string]Factory)
	mu       sync.RWMutex
)

// Register registers an application factory with the given name.
// This is typically called in init() functions of application packages.
// The name is case-insensitive and will be stored in lowercase.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	name = strings.ToLower(name)
	if _, exists := registry[name]; exists {
		logger.GetDefaultLogger().Infof("application with name %s already in application registry. "+
			"It will be overwritten.", name)
	}

	registry[name] = factory
}

// GetFactory returns the factory for the given application name.
// Returns nil if the name is not registered.
// The lookup is case-insensitive.
func GetFactory(name string) Factory {
	mu.RLock()
	defer mu.RUnlock()
	return registry[strings.ToLower(name)]
}

// ListRegistered returns the sorted names of all registered applications.
func ListRegistered() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Create creates a new application instance using the registered factory.
// Returns an error if the name is not registered or if creation fails.
func Create(name string, cfg config.HandlerConfig, log *logger.Logger) (*Application, error) {
	factory := GetFactory(name)
	if factory == nil {
		return nil, fmt.Errorf("unknown application: %s (registered applications: %v)", name, ListRegistered())
	}

	return factory(cfg, log)
}
