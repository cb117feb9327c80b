package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	for _, path := range []string{"testdata/config.yaml", "testdata/config.json", "testdata/config.toml"} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			cfg, err := LoadFromFile(path)
			require.NoError(t, err)

			validateConfig(t, cfg, filepath.Ext(path))
		})
	}
}

func TestLoad_FormatsAgree(t *testing.T) {
	var loaded []*Config
	for _, format := range []Format{FormatYAML, FormatJSON, FormatTOML} {
		data, err := os.ReadFile("testdata/config." + string(format))
		require.NoError(t, err)

		cfg, err := Load(data, format)
		require.NoError(t, err)
		loaded = append(loaded, cfg)
	}

	require.Equal(t, loaded[0], loaded[1], "yaml and json")
	require.Equal(t, loaded[0], loaded[2], "yaml and toml")
}

func TestLoadFromFile_Fixture(t *testing.T) {
	cfg, err := LoadFromFile("testdata/fixture.yaml")
	require.NoError(t, err)

	require.Equal(t, SourceTypeFixture, cfg.Source.Type)
	require.FileExists(t, cfg.Source.FixturePath)
	require.Equal(t, int64(1), cfg.Reader.StartAtBlock)
	require.Equal(t, "exact", cfg.Handler.ActionMatcher)
	require.NotNil(t, cfg.Logging)
	require.Equal(t, "info", cfg.Logging.DefaultLevel)
	require.Nil(t, cfg.Metrics)
	require.Nil(t, cfg.API)
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path        string
		expected    Format
		expectedErr string
	}{
		{path: "demux.yaml", expected: FormatYAML},
		{path: "demux.YML", expected: FormatYAML},
		{path: "/etc/demux/config.json", expected: FormatJSON},
		{path: "config.toml", expected: FormatTOML},
		{path: "config.txt", expectedErr: "unsupported config file format: \".txt\""},
		{path: "config", expectedErr: "unsupported config file format"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, err := FormatForPath(tt.path)
			if tt.expectedErr != "" {
				require.ErrorContains(t, err, tt.expectedErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.expected, format)
		})
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	write := func(t *testing.T, name, content string) string {
		t.Helper()

		path := filepath.Join(t.TempDir(), name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	tests := []struct {
		name        string
		path        func(t *testing.T) string
		expectedErr string
	}{
		{
			name:        "missing file",
			path:        func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.yaml") },
			expectedErr: "failed to read config file",
		},
		{
			name:        "malformed yaml",
			path:        func(t *testing.T) string { return write(t, "config.yaml", "source: [unclosed\n") },
			expectedErr: "failed to parse YAML config",
		},
		{
			name:        "malformed toml",
			path:        func(t *testing.T) string { return write(t, "config.toml", "[source\n") },
			expectedErr: "failed to parse TOML config",
		},
		{
			name:        "fixture without path",
			path:        func(t *testing.T) string { return write(t, "config.yaml", "source:\n  type: fixture\n") },
			expectedErr: "invalid configuration: source.fixture_path is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(tt.path(t))
			require.ErrorContains(t, err, tt.expectedErr)
		})
	}
}

// validateConfig checks that the loaded config has expected values
func validateConfig(t *testing.T, cfg *Config, format string) {
	t.Helper()

	require.Equal(t, SourceTypeEthereum, cfg.Source.Type, "[%s] source.type", format)
	require.NotEmpty(t, cfg.Source.RPCURL, "[%s] source.rpc_url should not be empty", format)
	require.Equal(t, "latest", cfg.Source.Finality, "[%s] source.finality", format)
	require.Equal(t, uint64(12), cfg.Source.FinalizedLag, "[%s] source.finalized_lag", format)
	require.Equal(t, time.Second, cfg.Source.Retry.InitialBackoff.Duration, "[%s] retry.initial_backoff", format)
	require.Len(t, cfg.Source.Contracts, 1, "[%s] source.contracts", format)
	require.Equal(t, []string{"Transfer(address,address,uint256)"}, cfg.Source.Contracts[0].Events)

	require.Equal(t, int64(-100), cfg.Reader.StartAtBlock, "[%s] reader.start_at_block", format)
	require.Equal(t, 256, cfg.Reader.MaxHistoryLength, "[%s] reader.max_history_length", format)
	require.Equal(t, DefaultMaxReloadAttempts, cfg.Reader.MaxReloadAttempts,
		"[%s] reader.max_reload_attempts should have default value", format)

	require.Equal(t, "transfers", cfg.Handler.Application, "[%s] handler.application", format)
	require.Equal(t, "wildcard", cfg.Handler.ActionMatcher, "[%s] handler.action_matcher", format)
	require.Equal(t, DefaultMaxEffectErrors, cfg.Handler.MaxEffectErrors,
		"[%s] handler.max_effect_errors should have default value", format)
	require.NotEmpty(t, cfg.Handler.DB.Path, "[%s] handler.db.path should not be empty", format)
	require.Equal(t, "WAL", cfg.Handler.DB.JournalMode, "[%s] db.journal_mode should have default value", format)
	require.Equal(t, "NORMAL", cfg.Handler.DB.Synchronous, "[%s] db.synchronous should have default value", format)
	require.NotNil(t, cfg.Handler.DB.Maintenance, "[%s] db.maintenance", format)
	require.Equal(t, time.Hour, cfg.Handler.DB.Maintenance.CheckInterval.Duration)
	require.Equal(t, "TRUNCATE", cfg.Handler.DB.Maintenance.WALCheckpointMode)

	require.Equal(t, 2*time.Second, cfg.Watcher.PollInterval.Duration, "[%s] watcher.poll_interval", format)
	require.Equal(t, 50, cfg.Watcher.VelocityWindow, "[%s] watcher.velocity_window", format)

	require.Equal(t, "debug", cfg.Logging.GetComponentLevel("reader"), "[%s] logging.component_levels", format)
	require.Equal(t, "info", cfg.Logging.GetComponentLevel("handler"), "[%s] logging.default_level", format)

	require.True(t, cfg.Metrics.Enabled, "[%s] metrics.enabled", format)
	require.Equal(t, "/metrics", cfg.Metrics.Path, "[%s] metrics.path should have default value", format)

	require.True(t, cfg.API.Enabled, "[%s] api.enabled", format)
	require.Equal(t, []string{"*"}, cfg.API.CORS.AllowedOrigins, "[%s] api.cors.allowed_origins", format)
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{
		Source: SourceConfig{
			RPCURL: "https://test.com",
			Retry:  &RetryConfig{},
		},
		Handler: HandlerConfig{
			Application: "transfers",
			DB:          DatabaseConfig{Path: "./test.db"},
		},
	}

	cfg.ApplyDefaults()

	require.Equal(t, SourceTypeEthereum, cfg.Source.Type)
	require.Equal(t, "finalized", cfg.Source.Finality)
	require.Equal(t, 5, cfg.Source.Retry.MaxAttempts)
	require.Equal(t, 30*time.Second, cfg.Source.Retry.MaxBackoff.Duration)

	require.Equal(t, int64(1), cfg.Reader.StartAtBlock)
	require.Equal(t, DefaultMaxHistoryLength, cfg.Reader.MaxHistoryLength)
	require.Equal(t, DefaultMaxReloadAttempts, cfg.Reader.MaxReloadAttempts)

	require.Equal(t, DefaultStartingVersion, cfg.Handler.StartingVersion)
	require.Equal(t, "all", cfg.Handler.EffectRunMode)
	require.Equal(t, "exact", cfg.Handler.ActionMatcher)
	require.Equal(t, DefaultMaxEffectErrors, cfg.Handler.MaxEffectErrors)

	require.Equal(t, "WAL", cfg.Handler.DB.JournalMode)
	require.Equal(t, "NORMAL", cfg.Handler.DB.Synchronous)
	require.Equal(t, 5000, cfg.Handler.DB.BusyTimeout)
	require.Equal(t, 25, cfg.Handler.DB.MaxOpenConnections)
	require.Equal(t, 5, cfg.Handler.DB.MaxIdleConnections)

	require.Equal(t, 250*time.Millisecond, cfg.Watcher.PollInterval.Duration)
	require.Equal(t, DefaultVelocityWindow, cfg.Watcher.VelocityWindow)

	require.NotNil(t, cfg.Logging)
	require.Equal(t, "info", cfg.Logging.DefaultLevel)
}

func TestConfigValidation(t *testing.T) {
	validSource := func() SourceConfig {
		return SourceConfig{
			RPCURL: "https://test.com",
			Contracts: []ContractConfig{
				{
					Address: "0x1234",
					Events:  []string{"Transfer(address,address,uint256)"},
				},
			},
		}
	}

	validHandler := func() HandlerConfig {
		return HandlerConfig{
			Application: "transfers",
			DB:          DatabaseConfig{Path: "./test.db"},
		}
	}

	tests := []struct {
		name        string
		modify      func(cfg *Config)
		expectedErr string
	}{
		{
			name:   "valid config",
			modify: func(*Config) {},
		},
		{
			name: "valid fixture config",
			modify: func(cfg *Config) {
				cfg.Source = SourceConfig{Type: "fixture", FixturePath: "chain.json"}
			},
		},
		{
			name:        "missing rpc_url",
			modify:      func(cfg *Config) { cfg.Source.RPCURL = "" },
			expectedErr: "source.rpc_url is required",
		},
		{
			name:        "invalid finality",
			modify:      func(cfg *Config) { cfg.Source.Finality = "invalid" },
			expectedErr: "source.finality",
		},
		{
			name:        "no contracts",
			modify:      func(cfg *Config) { cfg.Source.Contracts = nil },
			expectedErr: "at least one contract",
		},
		{
			name:        "contract without events",
			modify:      func(cfg *Config) { cfg.Source.Contracts[0].Events = nil },
			expectedErr: "source.contracts[0]: at least one event",
		},
		{
			name:        "unknown source type",
			modify:      func(cfg *Config) { cfg.Source.Type = "solana" },
			expectedErr: "source.type must be one of",
		},
		{
			name:        "fixture without path",
			modify:      func(cfg *Config) { cfg.Source = SourceConfig{Type: "fixture"} },
			expectedErr: "source.fixture_path is required",
		},
		{
			name:        "missing application",
			modify:      func(cfg *Config) { cfg.Handler.Application = "" },
			expectedErr: "handler.application is required",
		},
		{
			name:        "invalid effect run mode",
			modify:      func(cfg *Config) { cfg.Handler.EffectRunMode = "sometimes" },
			expectedErr: "handler.effect_run_mode",
		},
		{
			name:        "invalid action matcher",
			modify:      func(cfg *Config) { cfg.Handler.ActionMatcher = "regex" },
			expectedErr: "handler.action_matcher",
		},
		{
			name:        "invalid journal mode",
			modify:      func(cfg *Config) { cfg.Handler.DB.JournalMode = "WAL2" },
			expectedErr: "db.journal_mode",
		},
		{
			name: "unknown log component",
			modify: func(cfg *Config) {
				cfg.Logging = &LoggingConfig{ComponentLevels: map[string]string{"scheduler": "debug"}}
			},
			expectedErr: "unknown component 'scheduler'",
		},
		{
			name: "metrics path without slash",
			modify: func(cfg *Config) {
				cfg.Metrics = &MetricsConfig{Enabled: true, Path: "metrics"}
			},
			expectedErr: "metrics: path must start with '/'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Source: validSource(), Handler: validHandler()}
			tt.modify(cfg)

			cfg.ApplyDefaults()
			err := cfg.Validate()
			if tt.expectedErr == "" {
				require.NoError(t, err)
				return
			}

			require.ErrorContains(t, err, tt.expectedErr)
		})
	}
}
