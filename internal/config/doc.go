// Package config provides centralized configuration management for the dashboard.
// It loads configuration from multiple sources, validates it, and exposes a
// type-safe struct to the rest of the application.
//
// # Configuration Sources
//
// Sources are applied in this order, later ones winning:
//
//	1. Default() values
//	2. config.yaml (or the file named by AVOCADO_CONFIG_FILE)
//	3. A .env file in the working directory (never overrides set variables)
//	4. Process environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern AVOCADO_<SECTION>_<FIELD>:
//
//	AVOCADO_SERVER_PORT=8050
//	AVOCADO_DATASET_FILE=data/avocado.csv
//	AVOCADO_DASHBOARD_DEFAULT_REGION=Albany
//	AVOCADO_QUERY_LOG_ENABLED=false
//	AVOCADO_LOGGING_LEVEL=debug
//
// # Paths
//
// Relative paths are resolved against Paths.BaseDir (the working directory by
// default). ResolvedPaths returns the absolute locations and EnsureDirectories
// creates the writable ones.
package config
