package config

import "errors"

var (
	// ErrInvalidConfig wraps every Validate failure (unknown log_level, blank
	// metrics_namespace, blank display_names entries).
	ErrInvalidConfig = errors.New("invalid consolidator config")
	// ErrLoadConfig wraps failures reading the YAML file named by
	// CONSOLIDATOR_CONFIG, the environment, or unmarshalling into Config.
	ErrLoadConfig = errors.New("load consolidator config")
)
