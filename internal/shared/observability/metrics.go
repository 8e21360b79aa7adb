package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ModuleInitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grammarbridge_module_init_total",
		Help: "Total number of native module initializations by result code.",
	}, []string{"module", "result"})

	ModuleInitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "grammarbridge_module_init_seconds",
		Help:    "Time spent initializing a native module.",
		Buckets: prometheus.DefBuckets,
	}, []string{"module"})

	ExternalsLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "grammarbridge_externals_live",
		Help: "Number of External objects created by host environments that are still registered.",
	})

	TypeTagChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grammarbridge_type_tag_checks_total",
		Help: "Total number of External type tag checks by outcome.",
	}, []string{"result"})

	GrammarAcquireTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grammarbridge_grammar_acquire_total",
		Help: "Total number of grammar handle acquisitions by provider and result.",
	}, []string{"provider", "result"})

	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "grammarbridge_parsing_seconds",
		Help:    "Time spent parsing a source buffer with a bound grammar.",
		Buckets: prometheus.DefBuckets,
	}, []string{"grammar"})

	ParserPoolActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "grammarbridge_parser_pool_active",
		Help: "Parsers currently leased from a grammar's pool.",
	}, []string{"grammar"})
)
