package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	invoicesFinalized metric.Int64Counter
	creditNotesIssued metric.Int64Counter
	numbersRendered   metric.Int64Counter
	quotesComputed    metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "facture"
	}
	meter := provider.Meter(name)

	invoicesFinalized, err := meter.Int64Counter("facture_invoices_finalized_total")
	if err != nil {
		return nil, err
	}
	creditNotesIssued, err := meter.Int64Counter("facture_credit_notes_issued_total")
	if err != nil {
		return nil, err
	}
	numbersRendered, err := meter.Int64Counter("facture_numbers_rendered_total")
	if err != nil {
		return nil, err
	}
	quotesComputed, err := meter.Int64Counter("facture_price_quotes_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		invoicesFinalized: invoicesFinalized,
		creditNotesIssued: creditNotesIssued,
		numbersRendered:   numbersRendered,
		quotesComputed:    quotesComputed,
	}, nil
}

// RecordInvoiceFinalized increments finalized invoice counts.
func (m *Metrics) RecordInvoiceFinalized(ctx context.Context, currency string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("currency", strings.TrimSpace(currency)))
	m.invoicesFinalized.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCreditNoteIssued increments issued credit note counts.
func (m *Metrics) RecordCreditNoteIssued(ctx context.Context, currency string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("currency", strings.TrimSpace(currency)))
	m.creditNotesIssued.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordNumberRendered increments rendered document number counts.
func (m *Metrics) RecordNumberRendered(ctx context.Context, resetInterval string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reset_interval", strings.TrimSpace(resetInterval)))
	m.numbersRendered.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordQuoteComputed increments price quote counts.
func (m *Metrics) RecordQuoteComputed(ctx context.Context, pricingModel string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("pricing_model", strings.TrimSpace(pricingModel)))
	m.quotesComputed.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"currency":       {},
	"reset_interval": {},
	"pricing_model":  {},
	"endpoint":       {},
	"status_code":    {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
