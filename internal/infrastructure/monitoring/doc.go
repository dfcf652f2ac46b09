/*
Package monitoring provides Prometheus metrics for the playground server.

# Overview

Metrics owns a private registry, so several instances can coexist in one
process (tests, embedded servers). It implements the observer interfaces of
the loader, bundle and session packages:

	loader.Options{Observer: metrics}
	bundle.Options{Observer: metrics}
	sessions.WithObserver(metrics)

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics, "/metrics"))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	stage := monitoring.StartStage(metrics, "engine_init")
	stage.Done(engine.Init(ctx))
*/
package monitoring
