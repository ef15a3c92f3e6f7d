package decider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/node-patcher/internal/domain/maintenance"
)

var (
	errTestHistory   = errors.New("history unavailable")
	errTestStaleness = errors.New("staleness unavailable")

	today     = time.Date(2026, time.October, 18, 10, 0, 0, 0, time.UTC)
	essential = maintenance.PrefixSet{"containerd.io", "docker-ce", "docker-buildx-plugin"}
)

// fakeChecker answers the staleness query with a fixed value.
type fakeChecker struct {
	// recommended is the answer.
	recommended bool
	// err is returned instead of an answer when set.
	err error
	// calls counts invocations.
	calls int
}

func (f *fakeChecker) RebootRecommended(context.Context) (bool, error) {
	f.calls++

	return f.recommended, f.err
}

// fakeHistory returns a fixed transaction.
type fakeHistory struct {
	// tx is the transaction returned.
	tx *maintenance.Transaction
	// err is returned instead of a transaction when set.
	err error
	// calls counts invocations.
	calls int
}

func (f *fakeHistory) LastTransaction(context.Context) (*maintenance.Transaction, error) {
	f.calls++

	return f.tx, f.err
}

func upgradeLine(line string) maintenance.Action {
	return maintenance.Action{Kind: maintenance.UpgradeAction, Line: line}
}

func clock() time.Time {
	return today
}

// TestStaged_StalenessShortCircuits verifies the history is never read once staleness asks for a reboot.
func TestStaged_StalenessShortCircuits(t *testing.T) {
	t.Parallel()

	checker := &fakeChecker{recommended: true}
	source := &fakeHistory{}

	decision, err := NewStaged(checker, source, essential, WithClock(clock)).Decide(context.Background())
	require.NoError(t, err)
	require.Equal(t, maintenance.RebootFor(maintenance.ReasonStaleness, ""), decision)
	require.Equal(t, 0, source.calls)
}

// TestStaged_EssentialUpgradeToday escalates to a reboot for docker-ce upgraded today.
func TestStaged_EssentialUpgradeToday(t *testing.T) {
	t.Parallel()

	line := "Upgrade docker-ce-3:27.1.2-1.el9.x86_64 @docker-ce-stable"
	source := &fakeHistory{tx: &maintenance.Transaction{
		BeginTime: today.Add(-2 * time.Hour),
		Actions:   []maintenance.Action{upgradeLine(line)},
	}}

	decision, err := NewStaged(&fakeChecker{}, source, essential, WithClock(clock)).Decide(context.Background())
	require.NoError(t, err)
	require.True(t, decision.Reboot)
	require.Equal(t, maintenance.ReasonEssentialPackage, decision.Reason)
	require.Equal(t, line, decision.Detail)
	require.Equal(t, 1, source.calls)
}

// TestStaged_UnrelatedUpgradeToday keeps the node running.
func TestStaged_UnrelatedUpgradeToday(t *testing.T) {
	t.Parallel()

	source := &fakeHistory{tx: &maintenance.Transaction{
		BeginTime: today,
		Actions: []maintenance.Action{
			upgradeLine("Upgrade some-unrelated-pkg-1.0-1.el9.x86_64 @repo"),
			{Kind: "Upgraded", Line: "Upgraded docker-ce-3:27.1.1-1.el9.x86_64 @@System"},
		},
	}}

	decision, err := NewStaged(&fakeChecker{}, source, essential, WithClock(clock)).Decide(context.Background())
	require.NoError(t, err)
	require.Equal(t, maintenance.NoReboot(maintenance.ReasonNone), decision)
}

// TestEvaluateTransaction_StaleGuard ignores any transaction not from today.
func TestEvaluateTransaction_StaleGuard(t *testing.T) {
	t.Parallel()

	for _, begin := range []time.Time{
		today.AddDate(0, 0, -1),
		today.AddDate(-1, 0, 0),
		today.AddDate(0, 0, 1),
		{},
	} {
		tx := &maintenance.Transaction{
			BeginTime: begin,
			Actions: []maintenance.Action{
				upgradeLine("Upgrade docker-ce-3:27.1.2-1.el9.x86_64 @docker-ce-stable"),
				upgradeLine("Upgrade containerd.io-1.7.22-3.1.el9.x86_64 @docker-ce-stable"),
			},
		}

		decision := EvaluateTransaction(context.Background(), tx, essential, today)
		require.Equal(t, maintenance.NoReboot(maintenance.ReasonStaleTransaction), decision, begin.String())
	}

	decision := EvaluateTransaction(context.Background(), nil, essential, today)
	require.False(t, decision.Reboot)
}

// TestEvaluateTransaction_EmptyPrefixes never escalates.
func TestEvaluateTransaction_EmptyPrefixes(t *testing.T) {
	t.Parallel()

	tx := &maintenance.Transaction{
		BeginTime: today,
		Actions:   []maintenance.Action{upgradeLine("Upgrade docker-ce-3:27.1.2-1.el9.x86_64 @docker-ce-stable")},
	}

	decision := EvaluateTransaction(context.Background(), tx, nil, today)
	require.False(t, decision.Reboot)
}

// TestStaged_Errors propagates failures of either query.
func TestStaged_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewStaged(&fakeChecker{err: errTestStaleness}, &fakeHistory{}, essential).Decide(context.Background())
	require.ErrorIs(t, err, errTestStaleness)

	_, err = NewStaged(&fakeChecker{}, &fakeHistory{err: errTestHistory}, essential).Decide(context.Background())
	require.ErrorIs(t, err, errTestHistory)
}

// TestStalenessOnly never consults anything but the staleness query.
func TestStalenessOnly(t *testing.T) {
	t.Parallel()

	checker := &fakeChecker{recommended: true}

	decision, err := NewStalenessOnly(checker).Decide(context.Background())
	require.NoError(t, err)
	require.True(t, decision.Reboot)
	require.Equal(t, maintenance.ReasonStaleness, decision.Reason)

	checker.recommended = false

	decision, err = NewStalenessOnly(checker).Decide(context.Background())
	require.NoError(t, err)
	require.Equal(t, maintenance.NoReboot(maintenance.ReasonNone), decision)
	require.Equal(t, 2, checker.calls)

	_, err = NewStalenessOnly(&fakeChecker{err: errTestStaleness}).Decide(context.Background())
	require.ErrorIs(t, err, errTestStaleness)
}
