package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	translationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "querygenie_translations_total",
			Help: "Total number of natural-language to SQL translation attempts.",
		},
	)
	translationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "querygenie_translation_failures_total",
			Help: "Total number of failed completion calls during translation.",
		},
	)
	dangerousStatementsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "querygenie_dangerous_statements_total",
			Help: "Total number of generated statements flagged for confirmation.",
		},
	)
	resultParseFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "querygenie_result_parse_failures_total",
			Help: "Total number of execution payloads that matched neither result grammar.",
		},
	)
	statementExecutionSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "querygenie_statement_execution_seconds",
			Help:    "Latency of statement execution against the connected database.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)
	confirmCancelledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "querygenie_confirm_cancelled_total",
			Help: "Total number of dangerous statements cancelled at the confirm step.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		translationsTotal,
		translationFailuresTotal,
		dangerousStatementsTotal,
		resultParseFailuresTotal,
		statementExecutionSeconds,
		confirmCancelledTotal,
	)
}

func ObserveTranslation(failed bool) {
	translationsTotal.Inc()
	if failed {
		translationFailuresTotal.Inc()
	}
}

func IncrementDangerousStatement() {
	dangerousStatementsTotal.Inc()
}

func IncrementResultParseFailure() {
	resultParseFailuresTotal.Inc()
}

func ObserveStatementExecution(elapsed time.Duration) {
	statementExecutionSeconds.Observe(elapsed.Seconds())
}

func IncrementConfirmCancelled() {
	confirmCancelledTotal.Inc()
}
