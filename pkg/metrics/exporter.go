// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"slices"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"
)

// ErrInvalidExporter is returned for an unsupported exporter.
var ErrInvalidExporter = errors.New("unsupported exporter")

// Exporter is the type of the span exporter.
type Exporter string

const (
	// NOOP discards all spans.
	NOOP Exporter = "noop"
	// STDOUT writes the spans to stdout.
	STDOUT Exporter = "stdout"
	// HTTP exports the spans to an OTLP collector via HTTP.
	HTTP Exporter = "http"
	// GRPC exports the spans to an OTLP collector via gRPC.
	GRPC Exporter = "grpc"
)

func (e Exporter) String() string {
	return string(e)
}

// Validate checks if the exporter is supported.
// The empty exporter falls back to [NOOP].
func (e Exporter) Validate() error {
	if e == "" || slices.Contains([]Exporter{NOOP, STDOUT, HTTP, GRPC}, e) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidExporter, e)
}

// IsExporting reports whether the exporter sends spans to a collector.
func (e Exporter) IsExporting() bool {
	return e == HTTP || e == GRPC
}

type exporterFactory func(ctx context.Context, config *Config) (sdktrace.SpanExporter, error)

var factories = map[Exporter]exporterFactory{
	NOOP:   newNoopExporter,
	"":     newNoopExporter,
	STDOUT: newStdoutExporter,
	HTTP:   newHTTPExporter,
	GRPC:   newGRPCExporter,
}

// Create creates a new span exporter from the configuration.
func (e Exporter) Create(ctx context.Context, config *Config) (sdktrace.SpanExporter, error) {
	factory, ok := factories[e]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidExporter, e)
	}
	return factory(ctx, config)
}

func newNoopExporter(_ context.Context, _ *Config) (sdktrace.SpanExporter, error) {
	return &noopExporter{}, nil
}

func newStdoutExporter(_ context.Context, _ *Config) (sdktrace.SpanExporter, error) {
	return stdouttrace.New(stdouttrace.WithPrettyPrint())
}

func newHTTPExporter(ctx context.Context, config *Config) (sdktrace.SpanExporter, error) {
	headers, tlsCfg, err := commonConfig(config)
	if err != nil {
		return nil, err
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpointURL(config.Url),
		otlptracehttp.WithHeaders(headers),
	}
	if tlsCfg != nil {
		opts = append(opts, otlptracehttp.WithTLSClientConfig(tlsCfg))
	} else {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}

func newGRPCExporter(ctx context.Context, config *Config) (sdktrace.SpanExporter, error) {
	headers, tlsCfg, err := commonConfig(config)
	if err != nil {
		return nil, err
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpointURL(config.Url),
		otlptracegrpc.WithHeaders(headers),
	}
	if tlsCfg != nil {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(tlsCfg)))
	} else {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return otlptracegrpc.New(ctx, opts...)
}

// commonConfig returns the authorization headers and the TLS configuration
// shared by the OTLP exporters. The TLS configuration is nil if TLS is disabled.
func commonConfig(config *Config) (map[string]string, *tls.Config, error) {
	headers := map[string]string{}
	if config.Token != "" {
		headers["Authorization"] = fmt.Sprintf("Bearer %s", config.Token)
	}

	if !config.TLS.Enabled {
		return headers, nil, nil
	}

	tlsCfg, err := tlsConfig(config.TLS.CertPath)
	if err != nil {
		return nil, nil, err
	}
	return headers, tlsCfg, nil
}

// tlsConfig returns a TLS configuration trusting the system roots and, if
// certPath is set, the certificates in that file.
func tlsConfig(certPath string) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if certPath == "" {
		return cfg, nil
	}

	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	b, err := os.ReadFile(certPath) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate: %w", err)
	}
	if !pool.AppendCertsFromPEM(b) {
		return nil, fmt.Errorf("failed to append certificate from %s", certPath)
	}
	cfg.RootCAs = pool
	return cfg, nil
}

var _ sdktrace.SpanExporter = (*noopExporter)(nil)

// noopExporter drops all spans.
type noopExporter struct{}

func (*noopExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error { return nil }
func (*noopExporter) Shutdown(context.Context) error                             { return nil }
