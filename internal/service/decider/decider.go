package decider

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/node-patcher/internal/domain/maintenance"
	"github.com/oshokin/node-patcher/internal/logger"
	"github.com/oshokin/node-patcher/internal/repository/history"
	"github.com/oshokin/node-patcher/internal/service/staleness"
)

// Policy decides whether the node must reboot.
type Policy interface {
	Decide(ctx context.Context) (maintenance.Decision, error)
}

// StalenessOnly decides on the staleness query alone.
type StalenessOnly struct {
	// checker answers the staleness query.
	checker staleness.Checker
}

// NewStalenessOnly creates the flat policy.
func NewStalenessOnly(checker staleness.Checker) *StalenessOnly {
	return &StalenessOnly{checker: checker}
}

// Decide implements Policy.
func (p *StalenessOnly) Decide(ctx context.Context) (maintenance.Decision, error) {
	return decideByStaleness(ctx, p.checker)
}

// Staged decides on the staleness query first and on today's essential
// package upgrades second.
type Staged struct {
	// checker answers the staleness query.
	checker staleness.Checker
	// history returns the last transaction.
	history history.Source
	// prefixes lists the essential package prefixes.
	prefixes maintenance.PrefixSet
	// now returns the current time; the transaction must have begun on its day.
	now func() time.Time
}

// StagedOption configures a Staged policy.
type StagedOption func(*Staged)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StagedOption {
	return func(s *Staged) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStaged creates the two-step policy.
func NewStaged(
	checker staleness.Checker,
	source history.Source,
	prefixes maintenance.PrefixSet,
	opts ...StagedOption,
) *Staged {
	s := &Staged{
		checker:  checker,
		history:  source,
		prefixes: prefixes,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Decide implements Policy. The history query runs only when the staleness
// query found nothing.
func (p *Staged) Decide(ctx context.Context) (maintenance.Decision, error) {
	decision, err := decideByStaleness(ctx, p.checker)
	if err != nil || decision.Reboot {
		return decision, err
	}

	return p.EssentialPackages(ctx)
}

// EssentialPackages is the second step of the staged policy.
func (p *Staged) EssentialPackages(ctx context.Context) (maintenance.Decision, error) {
	tx, err := p.history.LastTransaction(ctx)
	if err != nil {
		return maintenance.Decision{}, fmt.Errorf("read last transaction: %w", err)
	}

	return EvaluateTransaction(ctx, tx, p.prefixes, p.now()), nil
}

// EvaluateTransaction applies the essential package rule to a transaction.
// A transaction that did not begin on now's calendar day belongs to an
// earlier run and never triggers a reboot.
func EvaluateTransaction(
	ctx context.Context,
	tx *maintenance.Transaction,
	prefixes maintenance.PrefixSet,
	now time.Time,
) maintenance.Decision {
	if !tx.BeganOn(now) {
		logger.InfoKV(ctx, "Last transaction is not from today, nothing was upgraded by this run",
			"transaction_id", transactionID(tx), "begin_time", beginTime(tx))

		return maintenance.NoReboot(maintenance.ReasonStaleTransaction)
	}

	for _, upgrade := range tx.Upgrades() {
		if prefix, ok := prefixes.Match(upgrade); ok {
			logger.InfoKV(ctx, "Essential package upgraded, reboot required",
				"prefix", prefix, "line", upgrade.Line)

			return maintenance.RebootFor(maintenance.ReasonEssentialPackage, upgrade.Line)
		}
	}

	logger.InfoKV(ctx, "No essential package upgraded", "transaction_id", tx.ID, "upgrades", len(tx.Upgrades()))

	return maintenance.NoReboot(maintenance.ReasonNone)
}

func decideByStaleness(ctx context.Context, checker staleness.Checker) (maintenance.Decision, error) {
	recommended, err := checker.RebootRecommended(ctx)
	if err != nil {
		return maintenance.Decision{}, fmt.Errorf("staleness check: %w", err)
	}

	if recommended {
		logger.Info(ctx, "Kernel or shared libraries were updated, reboot required")
		return maintenance.RebootFor(maintenance.ReasonStaleness, ""), nil
	}

	logger.Info(ctx, "Staleness check reports that a reboot should not be necessary")

	return maintenance.NoReboot(maintenance.ReasonNone), nil
}

func transactionID(tx *maintenance.Transaction) int {
	if tx == nil {
		return 0
	}

	return tx.ID
}

func beginTime(tx *maintenance.Transaction) string {
	if tx == nil || tx.BeginTime.IsZero() {
		return ""
	}

	return tx.BeginTime.Format(time.RFC3339)
}
