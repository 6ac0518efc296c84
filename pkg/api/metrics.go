package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// storeCollector implements prometheus.Collector, reading store stats on
// each scrape.
type storeCollector struct {
	srv *Server

	entries         *prometheus.Desc
	patterns        *prometheus.Desc
	commitsTotal    *prometheus.Desc
	rollbacksTotal  *prometheus.Desc
	historyLength   *prometheus.Desc
	candidateDirty  *prometheus.Desc
	configMode      *prometheus.Desc
	lastCommitTime  *prometheus.Desc
	logRecordsTotal *prometheus.Desc
	uptime          *prometheus.Desc
}

func newCollector(srv *Server) *storeCollector {
	return &storeCollector{
		srv: srv,

		entries: prometheus.NewDesc(
			"foamdict_entries",
			"Entries in the active dictionary, including nested ones.",
			nil, nil,
		),
		patterns: prometheus.NewDesc(
			"foamdict_pattern_entries",
			"Regular-expression keyed entries in the active dictionary.",
			nil, nil,
		),
		commitsTotal: prometheus.NewDesc(
			"foamdict_commits_total",
			"Total commits.",
			nil, nil,
		),
		rollbacksTotal: prometheus.NewDesc(
			"foamdict_rollbacks_total",
			"Total rollbacks to a previous commit.",
			nil, nil,
		),
		historyLength: prometheus.NewDesc(
			"foamdict_history_length",
			"Commits available for rollback.",
			nil, nil,
		),
		candidateDirty: prometheus.NewDesc(
			"foamdict_candidate_dirty",
			"1 if the candidate has uncommitted changes.",
			nil, nil,
		),
		configMode: prometheus.NewDesc(
			"foamdict_config_mode",
			"1 if a candidate is being edited.",
			nil, nil,
		),
		lastCommitTime: prometheus.NewDesc(
			"foamdict_last_commit_timestamp_seconds",
			"Unix time of the last commit.",
			nil, nil,
		),
		logRecordsTotal: prometheus.NewDesc(
			"foamdict_log_records_total",
			"Log records captured by the warning buffer.",
			nil, nil,
		),
		uptime: prometheus.NewDesc(
			"foamdict_uptime_seconds",
			"Seconds since the API server started.",
			nil, nil,
		),
	}
}

func (c *storeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entries
	ch <- c.patterns
	ch <- c.commitsTotal
	ch <- c.rollbacksTotal
	ch <- c.historyLength
	ch <- c.candidateDirty
	ch <- c.configMode
	ch <- c.lastCommitTime
	ch <- c.logRecordsTotal
	ch <- c.uptime
}

func (c *storeCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.uptime, prometheus.GaugeValue,
		time.Since(c.srv.startTime).Seconds())

	if logs := c.srv.logs; logs != nil {
		ch <- prometheus.MustNewConstMetric(c.logRecordsTotal, prometheus.CounterValue,
			float64(logs.Total()))
	}

	store := c.srv.store
	if store == nil {
		return
	}
	st := store.Stats()
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(st.Entries))
	ch <- prometheus.MustNewConstMetric(c.patterns, prometheus.GaugeValue, float64(st.Patterns))
	ch <- prometheus.MustNewConstMetric(c.commitsTotal, prometheus.CounterValue, float64(st.Commits))
	ch <- prometheus.MustNewConstMetric(c.rollbacksTotal, prometheus.CounterValue, float64(st.Rollbacks))
	ch <- prometheus.MustNewConstMetric(c.historyLength, prometheus.GaugeValue, float64(st.HistoryLen))
	ch <- prometheus.MustNewConstMetric(c.candidateDirty, prometheus.GaugeValue, boolFloat(st.Dirty))
	ch <- prometheus.MustNewConstMetric(c.configMode, prometheus.GaugeValue, boolFloat(st.Configuring))
	if !st.LastCommit.IsZero() {
		ch <- prometheus.MustNewConstMetric(c.lastCommitTime, prometheus.GaugeValue,
			float64(st.LastCommit.UnixNano())/1e9)
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
