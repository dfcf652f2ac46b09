// Package config loads playground settings from the environment.
//
// Values come from envconfig tags with defaults; cmd/server and the CLI load
// a .env file first and apply their flags last. Load rejects combinations the
// pipeline cannot run with, such as an unknown runtime link mode or a preview
// executor that does not exist.
//
//	PORT, HOST, MAX_BODY_BYTES                 http listener
//	LOG_LEVEL, LOG_DEV                         zap level and encoding
//	RATE_LIMIT_RPS, RATE_LIMIT_BURST, ...      per-client limits
//	PACKAGE_HOST, RUNTIME_LINK, FETCH_*        remote modules
//	PREVIEW_EXECUTOR, PREVIEW_TIMEOUT, ...     where documents run
package config
