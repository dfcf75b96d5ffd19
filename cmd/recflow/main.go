// Command recflow runs a record pipeline described by a JSON or YAML file:
// a source and parser produce records, the transform chain reshapes them and
// a storage backend receives the result.
//
// Usage:
//
//	recflow -config pipeline.yaml [-validate] [-metrics-backend none|pushgateway|datadog] [-v]
//
// Runtime settings can be overridden with RECFLOW_* environment variables
// (see config.Env).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}
