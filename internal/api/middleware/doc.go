// Package middleware holds the gin middleware in front of the playground API:
// CORS for editors on other origins, per-client and process-wide token
// buckets from x/time/rate, and a cap on project payload size.
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()), middleware.BodyLimit(cfg.Server.MaxBodyBytes))
package middleware
