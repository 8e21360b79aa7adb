package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: GRAMMARBRIDGE_[SECTION]_[KEY] (e.g., GRAMMARBRIDGE_GRAMMAR_LIBRARY).
func ApplyEnvOverrides(cfg *Config) {
	// Module
	setEnvString(&cfg.Module.ID, "GRAMMARBRIDGE_MODULE_ID")
	setEnvString(&cfg.Module.Name, "GRAMMARBRIDGE_MODULE_NAME")
	setEnvString(&cfg.Module.TypeTag, "GRAMMARBRIDGE_MODULE_TYPE_TAG")

	// Grammar
	setEnvString(&cfg.Grammar.Language, "GRAMMARBRIDGE_GRAMMAR_LANGUAGE")
	setEnvString(&cfg.Grammar.Source, "GRAMMARBRIDGE_GRAMMAR_SOURCE")
	setEnvString(&cfg.Grammar.Library, "GRAMMARBRIDGE_GRAMMAR_LIBRARY")
	setEnvString(&cfg.Grammar.Symbol, "GRAMMARBRIDGE_GRAMMAR_SYMBOL")
	setEnvString(&cfg.Grammar.Manifest, "GRAMMARBRIDGE_GRAMMAR_MANIFEST")
	setEnvBoolPtr(&cfg.Grammar.Verify, "GRAMMARBRIDGE_GRAMMAR_VERIFY")

	// Host
	setEnvInt(&cfg.Host.MaxExternals, "GRAMMARBRIDGE_HOST_MAX_EXTERNALS")
	setEnvInt(&cfg.Host.MaxExports, "GRAMMARBRIDGE_HOST_MAX_EXPORTS")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddress, "GRAMMARBRIDGE_OBSERVABILITY_METRICS_ADDRESS")
	setEnvString(&cfg.Observability.OTLPEndpoint, "GRAMMARBRIDGE_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = &b
		}
	}
}
