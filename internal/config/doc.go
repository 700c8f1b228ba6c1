// Package config provides the settings of the tabstop expansion engine.
//
// Settings are assembled from three layers, higher layers overriding
// lower ones:
//
//  1. Built-in defaults (Default)
//  2. A TOML or YAML file
//  3. TABSTOP_* environment variables
//
// The merged map is decoded into a Settings value and validated. Unknown
// keys are rejected so a typo in a file does not pass silently.
//
// # File Layout
//
//	[recompute]
//	retry_factor = 3        # pass budget factor for dependent variables
//	after_edit = "quick"    # "quick" or "full"
//
//	[script]
//	enabled = true
//	timeout = "2s"
//
//	[log]
//	level = "info"          # debug, info, warn, error
//	format = "text"         # text or json
//
//	[defaults]
//	reformat = false
//	indent = false
//	shorten_references = false
//
// The same keys apply to YAML. Environment variables follow the path:
// TABSTOP_RECOMPUTE_RETRY_FACTOR=5, TABSTOP_LOG_LEVEL=debug.
package config
