// Package config loads the latency API configuration from config.yaml.
//
// Config fields:
//   - Server.HTTPPort           - port for the REST API (default 8000, env PORT)
//   - Server.*Timeout           - http.Server read/write and shutdown timeouts
//   - Server.MaxBodyBytes       - cap on query request bodies (default 1 MiB)
//   - Server.CORS               - cross-origin policy (default: any origin)
//   - Dataset.Path              - JSON telemetry file (env LATENCY_API_DATASET)
//   - Query.DefaultThresholdMs  - breach threshold when a query omits it (180)
//   - Log.Level / Log.Format    - slog level and handler
//   - Metrics.Enabled / Path    - Prometheus exposition endpoint
//
// Load(path) applies defaults before unmarshalling, then environment
// overrides, then validates. Watch(ctx, path, fn) re-runs Load on every write
// to the file so the log level can change without a restart.
package config
