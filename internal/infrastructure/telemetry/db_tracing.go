package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled    bool
	// LogFullSQL includes bound query variables in span attributes.
	// Leave off in production, variables can contain customer data.
	LogFullSQL       bool
	SlowQueryThresh  time.Duration
	DBSystem         string
	WithoutVariables bool
}

// DefaultDBTracingConfig returns the secure defaults: tracing off, query
// variables stripped, 200ms slow query threshold.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:          false,
		LogFullSQL:       false,
		SlowQueryThresh:  200 * time.Millisecond,
		DBSystem:         "postgresql",
		WithoutVariables: true,
	}
}

// DBTracingPlugin is a gorm.Plugin that layers slow query detection and
// error marking on top of otelgorm spans.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a database tracing plugin. Register it with
// db.Use.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// Name implements gorm.Plugin.
func (p *DBTracingPlugin) Name() string {
	return "db_tracing"
}

// Initialize implements gorm.Plugin. It installs otelgorm for span creation
// plus the timing callbacks that feed slow query detection.
func (p *DBTracingPlugin) Initialize(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithDBName(p.config.DBSystem),
	}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := otelgorm.NewPlugin(opts...).Initialize(db); err != nil {
		return err
	}

	if err := registerTimingCallbacks(db, p.markQuerySpan); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)
	return nil
}

// registerTimingCallbacks hooks every GORM operation type with a before
// callback that stamps the start time and an after callback provided by
// the caller.
func registerTimingCallbacks(db *gorm.DB, after func(*gorm.DB)) error {
	before := func(db *gorm.DB) {
		if db.Statement.Context != nil {
			db.Statement.Context = WithQueryStartTime(db.Statement.Context)
		}
	}

	type registerFunc func(name string, fn func(*gorm.DB)) error
	hooks := map[string][2]registerFunc{
		"create": {db.Callback().Create().Before("gorm:create").Register, db.Callback().Create().After("gorm:create").Register},
		"query":  {db.Callback().Query().Before("gorm:query").Register, db.Callback().Query().After("gorm:query").Register},
		"update": {db.Callback().Update().Before("gorm:update").Register, db.Callback().Update().After("gorm:update").Register},
		"delete": {db.Callback().Delete().Before("gorm:delete").Register, db.Callback().Delete().After("gorm:delete").Register},
		"row":    {db.Callback().Row().Before("gorm:row").Register, db.Callback().Row().After("gorm:row").Register},
		"raw":    {db.Callback().Raw().Before("gorm:raw").Register, db.Callback().Raw().After("gorm:raw").Register},
	}
	for op, h := range hooks {
		if err := h[0]("db_tracing:before_"+op, before); err != nil {
			return err
		}
		if err := h[1]("db_tracing:after_"+op, after); err != nil {
			return err
		}
	}
	return nil
}

// markQuerySpan runs after each operation: it annotates the active span
// with row counts and table name, records errors, and flags queries that
// exceeded the slow query threshold.
func (p *DBTracingPlugin) markQuerySpan(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}

	// ErrRecordNotFound is a normal outcome for lookups, not a failure
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	startTime, ok := ctx.Value(queryStartTimeKey).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(startTime); elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
}

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

// WithQueryStartTime stamps the context with the current time for elapsed
// time measurement in the after callbacks.
func WithQueryStartTime(ctx context.Context) context.Context {
	return context.WithValue(ctx, queryStartTimeKey, time.Now())
}
