// Package metrics records build observations.
//
// Components receive a Recorder and default to NoopRecorder, so metrics are
// only collected when the CLI is asked for them:
//
//	rec := metrics.NewPrometheusRecorder(reg)
//	b := build.New(opts).WithRecorder(rec)
//
// A one-shot build writes the registry to a node-exporter textfile with
// WriteTextfile; watch mode can serve it over HTTP with HTTPHandler.
package metrics
