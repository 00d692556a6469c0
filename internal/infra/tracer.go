package infra

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/jgodboutprospector/canmp-sub003/config"
)

const serviceNamespace = "canmp"

// サイドカー固有のリソース属性。
const (
	attrUpstreamHost     = attribute.Key("aplos.upstream.host")
	attrClientConfigured = attribute.Key("aplos.client_id.configured")
	attrKeyWrapped       = attribute.Key("aplos.private_key.kms_wrapped")
	attrAuditPersistence = attribute.Key("sidecar.audit.persistence")
)

// InitTracer はトレーサープロバイダーを初期化する。
// OTEL_ENABLED=false の場合は nil を返す（トレーシング無効）。
func InitTracer(ctx context.Context, cfg *config.Config) (*sdktrace.TracerProvider, error) {
	if !cfg.OtelEnabled {
		return nil, nil
	}

	// コレクタは同一Pod内のエージェントを想定する
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OtelEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.OtelSamplingRate)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp, nil
}

// newResource はサイドカーを識別するリソースを生成する。
// 鍵やクライアントIDそのものは含めず、設定有無のみを載せる。
func newResource(ctx context.Context, cfg *config.Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.OtelServiceName),
		semconv.ServiceNamespace(serviceNamespace),
		semconv.ServiceVersion(Version),
		semconv.ServiceInstanceID(uuid.NewString()),
		attrClientConfigured.Bool(cfg.AplosClientID != ""),
		attrKeyWrapped.Bool(cfg.PrivateKeyKMSKeyName != ""),
		attrAuditPersistence.Bool(cfg.DatabaseURL != ""),
	}
	if u, err := url.Parse(cfg.AplosAPIBaseURL); err == nil && u.Host != "" {
		attrs = append(attrs, attrUpstreamHost.String(u.Host))
	}
	if cfg.GoogleCloudProject != "" {
		attrs = append(attrs, semconv.CloudProviderGCP, semconv.CloudAccountID(cfg.GoogleCloudProject))
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(attrs...),
		resource.WithHost(),
		resource.WithProcessRuntimeVersion(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating trace resource: %w", err)
	}
	return res, nil
}

// newSampler は親スパンの判定を優先するサンプラーを返す。
// rate が 1 以上なら全件、0 以下なら記録しない。
func newSampler(rate float64) sdktrace.Sampler {
	var root sdktrace.Sampler
	switch {
	case rate >= 1:
		root = sdktrace.AlwaysSample()
	case rate <= 0:
		root = sdktrace.NeverSample()
	default:
		root = sdktrace.TraceIDRatioBased(rate)
	}
	return sdktrace.ParentBased(root)
}
