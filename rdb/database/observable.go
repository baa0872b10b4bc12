package database

import (
	"context"
	"fmt"
	"time"

	"github.com/hatlonely/rquery/log"
	"github.com/hatlonely/rquery/log/logger"
	"github.com/hatlonely/rquery/rdb"
	"github.com/hatlonely/rquery/rdb/dialect"
	"github.com/hatlonely/rquery/rdb/param"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ObservableOptions struct {
	// Name 组件名称，作为指标名前缀、日志的 component 字段和 span 的 component 属性
	Name string `cfg:"name" def:"rdb" validate:"required"`

	EnableMetrics bool `cfg:"enableMetrics" def:"true"`
	EnableLogging bool `cfg:"enableLogging" def:"true"`
	EnableTracing bool `cfg:"enableTracing" def:"false"`

	// Logger 为空时使用 log.Default()
	Logger *logger.SLogOptions `cfg:"logger"`

	// LogSQL 是否在日志中输出 SQL 文本
	LogSQL bool `cfg:"logSQL" def:"false"`

	// Registerer 为空时注册到 prometheus.DefaultRegisterer
	Registerer prometheus.Registerer `cfg:"-"`
}

// ObservableMetrics 执行器指标
type ObservableMetrics struct {
	operationCounter  *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	activeOperations  *prometheus.GaugeVec
	rowsHistogram     *prometheus.HistogramVec
}

func NewObservableMetrics(name string, registerer prometheus.Registerer) (*ObservableMetrics, error) {
	metrics := &ObservableMetrics{
		operationCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: name + "_operations_total",
				Help: "Total number of statements",
			},
			[]string{"operation", "status"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    name + "_operation_duration_seconds",
				Help:    "Duration of statements in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"operation"},
		),
		activeOperations: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: name + "_active_operations",
				Help: "Number of statements in flight",
			},
			[]string{"operation"},
		),
		rowsHistogram: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    name + "_rows",
				Help:    "Rows affected by execute or returned by query",
				Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
			},
			[]string{"operation"},
		),
	}

	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		metrics.operationCounter,
		metrics.operationDuration,
		metrics.activeOperations,
		metrics.rowsHistogram,
	} {
		if err := registerer.Register(c); err != nil {
			return nil, errors.Wrap(err, "prometheus register failed")
		}
	}

	return metrics, nil
}

// ObservableExecutor 为任意 rdb.Executor 添加指标、日志和追踪
type ObservableExecutor struct {
	exec    rdb.Executor
	logger  logger.Logger
	metrics *ObservableMetrics
	tracer  trace.Tracer
	name    string
	logSQL  bool
}

func NewObservableExecutorWithOptions(exec rdb.Executor, options *ObservableOptions) (*ObservableExecutor, error) {
	if exec == nil {
		return nil, errors.New("executor is nil")
	}
	if options == nil {
		return nil, errors.New("options is nil")
	}

	obs := &ObservableExecutor{
		exec:   exec,
		name:   options.Name,
		logSQL: options.LogSQL,
	}

	if options.EnableLogging {
		if options.Logger != nil {
			l, err := log.NewLoggerWithOptions(options.Logger)
			if err != nil {
				return nil, errors.WithMessage(err, "log.NewLoggerWithOptions failed")
			}
			obs.logger = l
		} else {
			obs.logger = log.Default()
		}
		obs.logger = obs.logger.WithGroup("observableExecutor")
	}

	if options.EnableMetrics {
		metrics, err := NewObservableMetrics(options.Name, options.Registerer)
		if err != nil {
			return nil, err
		}
		obs.metrics = metrics
	}

	if options.EnableTracing {
		obs.tracer = otel.Tracer(fmt.Sprintf("rdb.%s", options.Name))
	}

	return obs, nil
}

func (obs *ObservableExecutor) Dialect() dialect.Dialect {
	return obs.exec.Dialect()
}

func (obs *ObservableExecutor) Execute(ctx context.Context, sql string, params []param.Param) (int64, error) {
	var n int64
	err := obs.observe(ctx, "execute", sql, len(params), func(ctx context.Context) (int64, error) {
		var err error
		n, err = obs.exec.Execute(ctx, sql, params)
		return n, err
	})
	return n, err
}

func (obs *ObservableExecutor) Query(ctx context.Context, sql string, params []param.Param, fn func(rdb.Row) error) error {
	return obs.observe(ctx, "query", sql, len(params), func(ctx context.Context) (int64, error) {
		var rows int64
		err := obs.exec.Query(ctx, sql, params, func(row rdb.Row) error {
			rows++
			return fn(row)
		})
		return rows, err
	})
}

func (obs *ObservableExecutor) observe(ctx context.Context, operation string, sql string, paramCount int, fn func(context.Context) (int64, error)) error {
	start := time.Now()

	var span trace.Span
	if obs.tracer != nil {
		attrs := []attribute.KeyValue{
			attribute.String("component", obs.name),
			attribute.String("operation", operation),
			attribute.Int("params", paramCount),
		}
		if obs.logSQL {
			attrs = append(attrs, attribute.String("db.statement", sql))
		}
		ctx, span = obs.tracer.Start(ctx, fmt.Sprintf("rdb.%s", operation), trace.WithAttributes(attrs...))
		defer span.End()
	}

	if obs.metrics != nil {
		obs.metrics.activeOperations.WithLabelValues(operation).Inc()
		defer obs.metrics.activeOperations.WithLabelValues(operation).Dec()
	}

	rows, err := fn(ctx)
	duration := time.Since(start)

	if span != nil {
		span.SetAttributes(
			attribute.Int64("rows", rows),
			attribute.Int64("duration_ms", duration.Milliseconds()),
		)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}

	if obs.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		obs.metrics.operationCounter.WithLabelValues(operation, status).Inc()
		obs.metrics.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
		if err == nil {
			obs.metrics.rowsHistogram.WithLabelValues(operation).Observe(float64(rows))
		}
	}

	if obs.logger != nil {
		args := []any{
			"component", obs.name,
			"operation", operation,
			"rows", rows,
			"duration_ms", duration.Milliseconds(),
		}
		if obs.logSQL {
			args = append(args, "sql", sql)
		}
		if err != nil {
			obs.logger.ErrorContext(ctx, "statement failed", append(args, "error", err.Error())...)
		} else {
			obs.logger.DebugContext(ctx, "statement completed", args...)
		}
	}

	return err
}
