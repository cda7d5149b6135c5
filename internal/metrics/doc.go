// Package metrics records pipeline metrics for sitebuilder.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	svc := build.NewPostsService(cfg).WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// The watch daemon exposes the Prometheus registry over HTTP. One-shot CLI
// runs write it to a node-exporter textfile when metrics.textfile is set.
package metrics
