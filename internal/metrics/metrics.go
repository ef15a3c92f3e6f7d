// Package metrics records the outcome of a maintenance pass in the
// node-exporter textfile collector format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/oshokin/node-patcher/internal/domain/maintenance"
)

const namespace = "node_patch"

// allOutcomes lists every outcome label so absent outcomes are exported as zero.
//
//nolint:gochecknoglobals // Read-only list.
var allOutcomes = []maintenance.Outcome{
	maintenance.OutcomeRebooting,
	maintenance.OutcomeNothingToDo,
	maintenance.OutcomeRemediated,
	maintenance.OutcomeRemediationFailed,
	maintenance.OutcomeUpdateFailed,
	maintenance.OutcomeRebootFailed,
	maintenance.OutcomeDryRun,
}

// Report is what a finished pass exports.
type Report struct {
	// Policy is the reboot policy name.
	Policy string
	// Finished is when the pass ended.
	Finished time.Time
	// Duration is how long the pass took.
	Duration time.Duration
	// Decision is the reboot decision, if one was reached.
	Decision *maintenance.Decision
	// Restarts is the number of remediation restarts.
	Restarts int
	// Outcome is how the pass ended.
	Outcome maintenance.Outcome
}

// Registry builds a fresh registry holding the report's gauges.
func Registry(report *Report) (*prometheus.Registry, error) {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"policy": report.Policy}

	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "last_run_timestamp_seconds",
		Help:        "Unix time the last maintenance pass finished.",
		ConstLabels: labels,
	})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "last_run_duration_seconds",
		Help:        "Duration of the last maintenance pass.",
		ConstLabels: labels,
	})
	rebootRequired := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "reboot_required",
		Help:        "Whether the last pass decided to reboot, by reason.",
		ConstLabels: labels,
	}, []string{"reason"})
	restarts := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "remediation_restarts",
		Help:        "Node agent restarts issued by the last pass.",
		ConstLabels: labels,
	})
	outcome := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "outcome",
		Help:        "Outcome of the last maintenance pass.",
		ConstLabels: labels,
	}, []string{"outcome"})

	for _, collector := range []prometheus.Collector{lastRun, duration, rebootRequired, restarts, outcome} {
		if err := registry.Register(collector); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}

	lastRun.Set(float64(report.Finished.Unix()))
	duration.Set(report.Duration.Seconds())
	restarts.Set(float64(report.Restarts))

	if report.Decision != nil {
		value := 0.0
		if report.Decision.Reboot {
			value = 1
		}

		rebootRequired.WithLabelValues(string(report.Decision.Reason)).Set(value)
	}

	for _, candidate := range allOutcomes {
		value := 0.0
		if candidate == report.Outcome {
			value = 1
		}

		outcome.WithLabelValues(string(candidate)).Set(value)
	}

	return registry, nil
}

// WriteTextfile writes the report atomically to path.
func WriteTextfile(path string, report *Report) error {
	registry, err := Registry(report)
	if err != nil {
		return err
	}

	if err = prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}

	return nil
}
