package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/goran-ethernal/ChainDemux/internal/common"
	"github.com/goran-ethernal/ChainDemux/internal/logger"
	"github.com/goran-ethernal/ChainDemux/internal/types"
)

const (
	SourceTypeEthereum = "ethereum"
	SourceTypeFixture  = "fixture"

	DefaultMaxHistoryLength  = 600
	DefaultMaxReloadAttempts = 3
	DefaultMaxEffectErrors   = 100
	DefaultVelocityWindow    = 20
	DefaultStartingVersion   = "v1"
)

// Config represents the complete configuration for ChainDemux.
type Config struct {
	// Source configures the block source the reader pulls blocks from
	Source SourceConfig `yaml:"source" json:"source" toml:"source"`

	// Reader configures the reader position and history window
	Reader ReaderConfig `yaml:"reader" json:"reader" toml:"reader"`

	// Handler configures the indexed application and effect execution
	Handler HandlerConfig `yaml:"handler" json:"handler" toml:"handler"`

	// Watcher configures the poll loop
	Watcher WatcherConfig `yaml:"watcher" json:"watcher" toml:"watcher"`

	// Logging contains logging configuration
	Logging *LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty" toml:"logging,omitempty"`

	// Metrics contains Prometheus metrics configuration
	Metrics *MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty" toml:"metrics,omitempty"`

	// API contains the status and control HTTP server configuration
	API *APIConfig `yaml:"api,omitempty" json:"api,omitempty" toml:"api,omitempty"`
}

// SourceConfig represents the configuration of the block source.
type SourceConfig struct {
	// Type selects the block source: "ethereum" or "fixture"
	Type string `yaml:"type" json:"type" toml:"type"`

	// RPCURL is the Ethereum RPC endpoint URL
	RPCURL string `yaml:"rpc_url,omitempty" json:"rpc_url,omitempty" toml:"rpc_url,omitempty"`

	// Finality specifies how the last irreversible block is determined: "finalized", "safe", or "latest"
	Finality string `yaml:"finality,omitempty" json:"finality,omitempty" toml:"finality,omitempty"`

	// FinalizedLag is the number of blocks behind head to consider irreversible
	// Only used when Finality is set to "latest"
	FinalizedLag uint64 `yaml:"finalized_lag,omitempty" json:"finalized_lag,omitempty" toml:"finalized_lag,omitempty"`

	// Retry contains RPC retry configuration with exponential backoff
	Retry *RetryConfig `yaml:"retry,omitempty" json:"retry,omitempty" toml:"retry,omitempty"`

	// Contracts lists the contracts whose logs become block actions
	Contracts []ContractConfig `yaml:"contracts,omitempty" json:"contracts,omitempty" toml:"contracts,omitempty"`

	// FixturePath is the path of the json, yaml or toml file holding the fixture blockchain
	FixturePath string `yaml:"fixture_path,omitempty" json:"fixture_path,omitempty" toml:"fixture_path,omitempty"`
}

// ApplyDefaults sets default values for optional source configuration fields.
func (s *SourceConfig) ApplyDefaults() {
	if s.Type == "" {
		s.Type = SourceTypeEthereum
	}
	if s.Finality == "" {
		s.Finality = types.FinalityFinalized.String()
	}
	if s.Retry != nil {
		s.Retry.ApplyDefaults()
	}
}

// Validate checks if the source configuration is valid.
func (s *SourceConfig) Validate() error {
	switch common.ToLowerWithTrim(s.Type) {
	case SourceTypeEthereum:
		if s.RPCURL == "" {
			return fmt.Errorf("source.rpc_url is required")
		}

		if _, err := types.ParseBlockFinality(s.Finality); err != nil {
			return fmt.Errorf("source.finality: %w", err)
		}

		if len(s.Contracts) == 0 {
			return fmt.Errorf("source: at least one contract must be configured")
		}

		for i, contract := range s.Contracts {
			if contract.Address == "" {
				return fmt.Errorf("source.contracts[%d]: address is required", i)
			}

			if len(contract.Events) == 0 {
				return fmt.Errorf("source.contracts[%d]: at least one event must be configured", i)
			}
		}
	case SourceTypeFixture:
		if s.FixturePath == "" {
			return fmt.Errorf("source.fixture_path is required")
		}
	default:
		return fmt.Errorf("source.type must be one of: '%s' or '%s'", SourceTypeEthereum, SourceTypeFixture)
	}

	return nil
}

// ContractConfig represents a contract and its events to index.
type ContractConfig struct {
	// Address is the contract address to monitor
	Address string `yaml:"address" json:"address" toml:"address"`

	// Events is the list of event signatures to index
	// Format: "EventName(type1,type2,...)"
	Events []string `yaml:"events" json:"events" toml:"events"`
}

// RetryConfig represents RPC retry configuration with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial request)
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts" toml:"max_attempts"`

	// InitialBackoff is the initial backoff duration before first retry
	InitialBackoff common.Duration `yaml:"initial_backoff" json:"initial_backoff" toml:"initial_backoff"`

	// MaxBackoff is the maximum backoff duration
	MaxBackoff common.Duration `yaml:"max_backoff" json:"max_backoff" toml:"max_backoff"`

	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64 `yaml:"backoff_multiplier" json:"backoff_multiplier" toml:"backoff_multiplier"`
}

// ApplyDefaults sets default values for retry configuration.
func (r *RetryConfig) ApplyDefaults() {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = 5
	}
	if r.InitialBackoff.Duration == 0 {
		r.InitialBackoff = common.NewDuration(1 * time.Second)
	}
	if r.MaxBackoff.Duration == 0 {
		r.MaxBackoff = common.NewDuration(30 * time.Second) //nolint:mnd
	}
	if r.BackoffMultiplier == 0 {
		r.BackoffMultiplier = 2.0
	}
}

// ReaderConfig represents the configuration of the reader.
type ReaderConfig struct {
	// StartAtBlock is the first block to deliver
	// Negative values tail the chain: the start block becomes head + StartAtBlock
	StartAtBlock int64 `yaml:"start_at_block" json:"start_at_block" toml:"start_at_block"`

	// OnlyIrreversible restricts the reader to irreversible blocks
	OnlyIrreversible bool `yaml:"only_irreversible" json:"only_irreversible" toml:"only_irreversible"`

	// MaxHistoryLength caps the number of recent blocks kept for fork resolution
	MaxHistoryLength int `yaml:"max_history_length" json:"max_history_length" toml:"max_history_length"`

	// MaxReloadAttempts bounds history reload retries when the chain changes during a reload
	MaxReloadAttempts int `yaml:"max_reload_attempts" json:"max_reload_attempts" toml:"max_reload_attempts"`
}

// ApplyDefaults sets default values for optional reader configuration fields.
func (r *ReaderConfig) ApplyDefaults() {
	if r.StartAtBlock == 0 {
		r.StartAtBlock = 1
	}
	if r.MaxHistoryLength == 0 {
		r.MaxHistoryLength = DefaultMaxHistoryLength
	}
	if r.MaxReloadAttempts == 0 {
		r.MaxReloadAttempts = DefaultMaxReloadAttempts
	}
}

// Validate checks if the reader configuration is valid.
func (r *ReaderConfig) Validate() error {
	if r.MaxHistoryLength < 1 {
		return fmt.Errorf("reader.max_history_length must be positive")
	}
	if r.MaxReloadAttempts < 1 {
		return fmt.Errorf("reader.max_reload_attempts must be positive")
	}

	return nil
}

// HandlerConfig represents the configuration of the handler and the indexed application.
type HandlerConfig struct {
	// Application is the registered name of the application to index
	Application string `yaml:"application" json:"application" toml:"application"`

	// StartingVersion is the handler version used before any version switch
	StartingVersion string `yaml:"starting_version" json:"starting_version" toml:"starting_version"`

	// EffectRunMode selects which effects run: "all", "only_immediate", "only_deferred" or "none"
	EffectRunMode string `yaml:"effect_run_mode" json:"effect_run_mode" toml:"effect_run_mode"`

	// MaxEffectErrors caps the number of retained effect errors
	MaxEffectErrors int `yaml:"max_effect_errors" json:"max_effect_errors" toml:"max_effect_errors"`

	// ActionMatcher selects how action types are matched: "exact" or "wildcard"
	ActionMatcher string `yaml:"action_matcher" json:"action_matcher" toml:"action_matcher"`

	// DB contains database configuration for the application state
	DB DatabaseConfig `yaml:"db" json:"db" toml:"db"`
}

// ApplyDefaults sets default values for optional handler configuration fields.
func (h *HandlerConfig) ApplyDefaults() {
	if h.StartingVersion == "" {
		h.StartingVersion = DefaultStartingVersion
	}
	if h.EffectRunMode == "" {
		h.EffectRunMode = "all"
	}
	if h.MaxEffectErrors == 0 {
		h.MaxEffectErrors = DefaultMaxEffectErrors
	}
	if h.ActionMatcher == "" {
		h.ActionMatcher = "exact"
	}

	h.DB.ApplyDefaults()
}

// Validate checks if the handler configuration is valid.
func (h *HandlerConfig) Validate() error {
	if h.Application == "" {
		return fmt.Errorf("handler.application is required")
	}

	validModes := []string{"all", "only_immediate", "only_deferred", "none"}
	if !slices.Contains(validModes, common.ToLowerWithTrim(h.EffectRunMode)) {
		return fmt.Errorf("handler.effect_run_mode must be one of: all, only_immediate, only_deferred, none")
	}

	if !slices.Contains([]string{"exact", "wildcard"}, common.ToLowerWithTrim(h.ActionMatcher)) {
		return fmt.Errorf("handler.action_matcher must be one of: exact, wildcard")
	}

	if h.MaxEffectErrors < 1 {
		return fmt.Errorf("handler.max_effect_errors must be positive")
	}

	return h.DB.Validate()
}

// WatcherConfig represents the configuration of the poll loop.
type WatcherConfig struct {
	// PollInterval is the minimum time between the start of two loop passes
	PollInterval common.Duration `yaml:"poll_interval" json:"poll_interval" toml:"poll_interval"`

	// VelocityWindow is the number of recent block intervals used to compute block velocity
	VelocityWindow int `yaml:"velocity_window" json:"velocity_window" toml:"velocity_window"`

	// Replay suppresses effects until the first pass catches up with the head
	Replay bool `yaml:"replay" json:"replay" toml:"replay"`
}

// ApplyDefaults sets default values for optional watcher configuration fields.
func (w *WatcherConfig) ApplyDefaults() {
	if w.PollInterval.Duration == 0 {
		w.PollInterval = common.NewDuration(250 * time.Millisecond) //nolint:mnd
	}
	if w.VelocityWindow == 0 {
		w.VelocityWindow = DefaultVelocityWindow
	}
}

// DatabaseConfig represents database configuration.
type DatabaseConfig struct {
	// Path is the file path to the SQLite database
	Path string `yaml:"path" json:"path" toml:"path"`

	// JournalMode sets the SQLite journal mode (e.g., "WAL", "DELETE")
	// WAL mode is recommended for better concurrency
	JournalMode string `yaml:"journal_mode" json:"journal_mode" toml:"journal_mode"`

	// Synchronous sets the synchronization level ("FULL", "NORMAL", "OFF")
	// NORMAL provides a good balance between safety and performance
	Synchronous string `yaml:"synchronous" json:"synchronous" toml:"synchronous"`

	// BusyTimeout is the time in milliseconds to wait when the database is locked
	BusyTimeout int `yaml:"busy_timeout" json:"busy_timeout" toml:"busy_timeout"`

	// CacheSize is the size of the page cache (negative = KB, positive = pages)
	CacheSize int `yaml:"cache_size" json:"cache_size" toml:"cache_size"`

	// MaxOpenConnections is the maximum number of open database connections
	MaxOpenConnections int `yaml:"max_open_connections" json:"max_open_connections" toml:"max_open_connections"`

	// MaxIdleConnections is the maximum number of idle connections in the pool
	MaxIdleConnections int `yaml:"max_idle_connections" json:"max_idle_connections" toml:"max_idle_connections"`

	// EnableForeignKeys enables foreign key constraint enforcement
	EnableForeignKeys bool `yaml:"enable_foreign_keys" json:"enable_foreign_keys" toml:"enable_foreign_keys"`

	// Maintenance contains optional database maintenance settings
	Maintenance *MaintenanceConfig `yaml:"maintenance,omitempty" json:"maintenance,omitempty" toml:"maintenance,omitempty"`
}

// ApplyDefaults sets default values for optional database configuration fields.
func (d *DatabaseConfig) ApplyDefaults() {
	if d.JournalMode == "" {
		d.JournalMode = "WAL"
	}
	if d.Synchronous == "" {
		d.Synchronous = "NORMAL"
	}
	if d.BusyTimeout == 0 {
		d.BusyTimeout = 5000
	}
	if d.CacheSize == 0 {
		d.CacheSize = 10000
	}
	if d.MaxOpenConnections == 0 {
		d.MaxOpenConnections = 25
	}
	if d.MaxIdleConnections == 0 {
		d.MaxIdleConnections = 5
	}
	// EnableForeignKeys defaults to false (zero value)

	if d.Maintenance != nil {
		d.Maintenance.ApplyDefaults()
	}
}

// Validate checks the enumerated database settings.
func (d *DatabaseConfig) Validate() error {
	if d.JournalMode != "" &&
		!slices.Contains([]string{"WAL", "DELETE", "TRUNCATE", "PERSIST", "MEMORY"}, d.JournalMode) {
		return fmt.Errorf("db.journal_mode must be one of: WAL, DELETE, TRUNCATE, PERSIST, MEMORY")
	}

	if d.Synchronous != "" && !slices.Contains([]string{"FULL", "NORMAL", "OFF"}, d.Synchronous) {
		return fmt.Errorf("db.synchronous must be one of: FULL, NORMAL, OFF")
	}

	if d.Maintenance != nil {
		return d.Maintenance.Validate()
	}

	return nil
}

// MaintenanceConfig configures database maintenance behavior.
type MaintenanceConfig struct {
	// Enabled controls whether background maintenance runs
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// CheckInterval is how often to run maintenance (e.g., "30m", "1h")
	CheckInterval common.Duration `yaml:"check_interval" json:"check_interval" toml:"check_interval"`

	// VacuumOnStartup runs maintenance immediately on startup
	VacuumOnStartup bool `yaml:"vacuum_on_startup" json:"vacuum_on_startup" toml:"vacuum_on_startup"`

	// WALCheckpointMode controls the WAL checkpoint aggressiveness
	// Options: PASSIVE, FULL, RESTART, TRUNCATE
	WALCheckpointMode string `yaml:"wal_checkpoint_mode" json:"wal_checkpoint_mode" toml:"wal_checkpoint_mode"`
}

// ApplyDefaults sets default values for optional maintenance configuration fields.
func (m *MaintenanceConfig) ApplyDefaults() {
	if m.CheckInterval.Duration == 0 {
		m.CheckInterval = common.NewDuration(30 * time.Minute) //nolint:mnd
	}
	if m.WALCheckpointMode == "" {
		m.WALCheckpointMode = "TRUNCATE"
	}
}

// Validate checks if the maintenance configuration is valid.
func (m *MaintenanceConfig) Validate() error {
	if m.WALCheckpointMode != "" &&
		!slices.Contains([]string{"PASSIVE", "FULL", "RESTART", "TRUNCATE"}, m.WALCheckpointMode) {
		return fmt.Errorf("db.maintenance.wal_checkpoint_mode must be one of: PASSIVE, FULL, RESTART, TRUNCATE")
	}

	if m.Enabled && m.CheckInterval.Duration <= 0 {
		return fmt.Errorf("db.maintenance.check_interval must be positive")
	}

	return nil
}

// LoggingConfig configures logging behavior with per-component log levels.
type LoggingConfig struct {
	// DefaultLevel is the default log level for all components
	// Options: "debug", "info", "warn", "error"
	DefaultLevel string `yaml:"default_level" json:"default_level" toml:"default_level"`

	// Development enables development mode (stack traces, console encoder)
	Development bool `yaml:"development" json:"development" toml:"development"`

	// ComponentLevels sets log levels for specific components
	// Available components:
	//   - reader: Block stream and fork resolution
	//   - handler: Updaters, handler versions and index state
	//   - watcher: Poll loop
	//   - effects: Effect execution
	//   - block-source: Block source adapters
	//   - state-store: State store adapters
	//   - api: Status and control server
	//   - metrics: Metrics server
	//   - rpc: Ethereum RPC client
	ComponentLevels map[string]string `yaml:"component_levels,omitempty" json:"component_levels,omitempty" toml:"component_levels,omitempty"` //nolint:lll
}

// ApplyDefaults sets default values for optional logging configuration fields.
func (l *LoggingConfig) ApplyDefaults() {
	if l.DefaultLevel == "" {
		l.DefaultLevel = "info"
	}
	// Development defaults to false (zero value)
	if l.ComponentLevels == nil {
		l.ComponentLevels = make(map[string]string)
	}
}

// Validate checks if the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	if l.DefaultLevel != "" {
		if _, valid := logger.ValidLogLevels[common.ToLowerWithTrim(l.DefaultLevel)]; !valid {
			return fmt.Errorf("logging.default_level: must be one of: debug, info, warn, error")
		}
	}

	for component, level := range l.ComponentLevels {
		if _, validComponent := common.AllComponents[common.ToLowerWithTrim(component)]; !validComponent {
			return fmt.Errorf("logging.component_levels: unknown component '%s'", component)
		}

		if _, valid := logger.ValidLogLevels[common.ToLowerWithTrim(level)]; !valid {
			return fmt.Errorf("logging.component_levels[%s]: must be one of: debug, info, warn, error", component)
		}
	}

	return nil
}

// GetComponentLevel returns the log level for a specific component.
// Falls back to DefaultLevel if no component-specific level is set.
func (l *LoggingConfig) GetComponentLevel(component string) string {
	if level, ok := l.ComponentLevels[component]; ok {
		return common.ToLowerWithTrim(level)
	}
	return common.ToLowerWithTrim(l.DefaultLevel)
}

// GetDefaultLevel returns the default log level.
func (l *LoggingConfig) GetDefaultLevel() string {
	return common.ToLowerWithTrim(l.DefaultLevel)
}

// IsDevelopment returns whether development mode is enabled.
func (l *LoggingConfig) IsDevelopment() bool {
	return l.Development
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP endpoint are active
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress is the address to bind the metrics HTTP server to
	// Format: "host:port" or ":port"
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	// Path is the HTTP path where metrics are exposed
	Path string `yaml:"path" json:"path" toml:"path"`
}

// ApplyDefaults sets default values for optional metrics configuration fields.
func (m *MetricsConfig) ApplyDefaults() {
	if m.ListenAddress == "" {
		m.ListenAddress = ":9090"
	}
	if m.Path == "" {
		m.Path = "/metrics"
	}
}

// Validate checks if the metrics configuration is valid.
func (m *MetricsConfig) Validate() error {
	if m.Enabled {
		if m.ListenAddress == "" {
			return fmt.Errorf("listen_address is required when metrics are enabled")
		}
		if m.Path == "" {
			return fmt.Errorf("path is required when metrics are enabled")
		}
		if m.Path[0] != '/' {
			return fmt.Errorf("path must start with '/'")
		}
	}
	return nil
}

// APIConfig configures the status and control HTTP server.
type APIConfig struct {
	// Enabled controls whether the API server is started
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress is the address to bind the API server to
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request
	ReadTimeout common.Duration `yaml:"read_timeout" json:"read_timeout" toml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response
	WriteTimeout common.Duration `yaml:"write_timeout" json:"write_timeout" toml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request on keep-alive connections
	IdleTimeout common.Duration `yaml:"idle_timeout" json:"idle_timeout" toml:"idle_timeout"`

	// CORS configures cross-origin requests
	CORS CORSConfig `yaml:"cors" json:"cors" toml:"cors"`
}

// CORSConfig configures cross-origin resource sharing.
type CORSConfig struct {
	Enabled        bool     `yaml:"enabled" json:"enabled" toml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins" toml:"allowed_origins"`
}

// ApplyDefaults sets default values for optional API configuration fields.
func (a *APIConfig) ApplyDefaults() {
	if a.ListenAddress == "" {
		a.ListenAddress = ":8080"
	}
	if a.ReadTimeout.Duration == 0 {
		a.ReadTimeout = common.NewDuration(15 * time.Second) //nolint:mnd
	}
	if a.WriteTimeout.Duration == 0 {
		a.WriteTimeout = common.NewDuration(15 * time.Second) //nolint:mnd
	}
	if a.IdleTimeout.Duration == 0 {
		a.IdleTimeout = common.NewDuration(60 * time.Second) //nolint:mnd
	}
	if a.CORS.Enabled && len(a.CORS.AllowedOrigins) == 0 {
		a.CORS.AllowedOrigins = []string{"*"}
	}
}

// ApplyDefaults sets default values for optional configuration fields.
func (c *Config) ApplyDefaults() {
	c.Source.ApplyDefaults()
	c.Reader.ApplyDefaults()
	c.Handler.ApplyDefaults()
	c.Watcher.ApplyDefaults()

	if c.Logging == nil {
		c.Logging = &LoggingConfig{}
	}
	c.Logging.ApplyDefaults()

	if c.Metrics != nil {
		c.Metrics.ApplyDefaults()
	}

	if c.API != nil {
		c.API.ApplyDefaults()
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Source.Validate(); err != nil {
		return err
	}

	if err := c.Reader.Validate(); err != nil {
		return err
	}

	if err := c.Handler.Validate(); err != nil {
		return err
	}

	if c.Logging != nil {
		if err := c.Logging.Validate(); err != nil {
			return err
		}
	}

	if c.Metrics != nil {
		if err := c.Metrics.Validate(); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	return nil
}
