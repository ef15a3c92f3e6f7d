package history

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/node-patcher/internal/domain/maintenance"
)

const dnf4Report = `Transaction ID : 57
Begin time     : Sun Oct 18 04:12:09 2026
Begin rpmdb    : 1f0b1c6d2a1e5e0c3b8b9c8f4f0a7e6d5c4b3a21
End time       : Sun Oct 18 04:13:40 2026 (91 seconds)
End rpmdb      : 9a8b7c6d5e4f3a2b1c0d9e8f7a6b5c4d3e2f1a0b
User           : root <root>
Return-Code    : Success
Releasever     : 9
Command Line   : -y update
Comment        :
Packages Altered:
    Upgrade  containerd.io-1.7.22-3.1.el9.x86_64               @docker-ce-stable
    Upgraded containerd.io-1.7.20-3.1.el9.x86_64               @@System
    Upgrade  docker-ce-3:27.1.2-1.el9.x86_64                   @docker-ce-stable
    Upgraded docker-ce-3:27.1.1-1.el9.x86_64                   @@System
    Install  kernel-5.14.0-427.40.1.el9_4.x86_64               @baseos
Scriptlet output:
   1 Created symlink /etc/systemd/system/multi-user.target.wants/docker.service.
`

const dnf5Report = `Transaction ID : 12
Begin time     : 2026-10-17 22:01:44
Begin rpmdb    : 1234
End time       : 2026-10-17 22:02:10
User           : root <root>
Status         : Ok
Releasever     : 41
Description    : dnf5 -y update
Packages altered:
  Action    Package                                      Reason       Repository
  Upgrade   some-unrelated-pkg-1.0-1.fc41.x86_64         User         updates
  Replaced  some-unrelated-pkg-0.9-1.fc41.x86_64         User         @System
`

// TestParse_DNF4 parses a dnf 4 report including epochs and scriptlet output.
func TestParse_DNF4(t *testing.T) {
	t.Parallel()

	tx, err := Parse(strings.NewReader(dnf4Report), time.UTC)
	require.NoError(t, err)

	want := &maintenance.Transaction{
		ID:        57,
		BeginTime: time.Date(2026, time.October, 18, 4, 12, 9, 0, time.UTC),
		Actions: []maintenance.Action{
			{
				Kind:       "Upgrade",
				Package:    "containerd.io-1.7.22-3.1.el9.x86_64",
				Repository: "@docker-ce-stable",
				Line:       "Upgrade  containerd.io-1.7.22-3.1.el9.x86_64               @docker-ce-stable",
			},
			{
				Kind:       "Upgraded",
				Package:    "containerd.io-1.7.20-3.1.el9.x86_64",
				Repository: "@@System",
				Line:       "Upgraded containerd.io-1.7.20-3.1.el9.x86_64               @@System",
			},
			{
				Kind:       "Upgrade",
				Package:    "docker-ce-3:27.1.2-1.el9.x86_64",
				Repository: "@docker-ce-stable",
				Line:       "Upgrade  docker-ce-3:27.1.2-1.el9.x86_64                   @docker-ce-stable",
			},
			{
				Kind:       "Upgraded",
				Package:    "docker-ce-3:27.1.1-1.el9.x86_64",
				Repository: "@@System",
				Line:       "Upgraded docker-ce-3:27.1.1-1.el9.x86_64                   @@System",
			},
			{
				Kind:       "Install",
				Package:    "kernel-5.14.0-427.40.1.el9_4.x86_64",
				Repository: "@baseos",
				Line:       "Install  kernel-5.14.0-427.40.1.el9_4.x86_64               @baseos",
			},
		},
	}

	if diff := cmp.Diff(want, tx); diff != "" {
		t.Fatalf("unexpected transaction (-want +got):\n%s", diff)
	}

	require.Len(t, tx.Upgrades(), 2)
}

// TestParse_DNF5 accepts the ISO begin time and the tabular package list.
func TestParse_DNF5(t *testing.T) {
	t.Parallel()

	tx, err := Parse(strings.NewReader(dnf5Report), time.UTC)
	require.NoError(t, err)
	require.Equal(t, 12, tx.ID)
	require.Equal(t, time.Date(2026, time.October, 17, 22, 1, 44, 0, time.UTC), tx.BeginTime)

	upgrades := tx.Upgrades()
	require.Len(t, upgrades, 1)
	require.Equal(t, "some-unrelated-pkg-1.0-1.fc41.x86_64", upgrades[0].Package)
	require.Equal(t, "updates", upgrades[0].Repository)
}

// TestParse_BeginTimeLayouts covers every accepted date rendering.
func TestParse_BeginTimeLayouts(t *testing.T) {
	t.Parallel()

	cases := map[string]time.Time{
		"Sun Oct 18 04:12:09 2026":        time.Date(2026, time.October, 18, 4, 12, 9, 0, time.UTC),
		"Tue Oct  6 04:12:09 2026":        time.Date(2026, time.October, 6, 4, 12, 9, 0, time.UTC),
		"2026-10-18 04:12:09":             time.Date(2026, time.October, 18, 4, 12, 9, 0, time.UTC),
		"2026-10-18 04:12":                time.Date(2026, time.October, 18, 4, 12, 0, 0, time.UTC),
		"18/10/2026 04:12:09":             time.Date(2026, time.October, 18, 4, 12, 9, 0, time.UTC),
		"18/10/2026":                      time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC),
		"Sun 18 Oct 2026 04:12:09 AM UTC": time.Date(2026, time.October, 18, 4, 12, 9, 0, time.UTC),
	}

	for value, want := range cases {
		tx, err := Parse(strings.NewReader("Begin time : "+value+"\n"), time.UTC)
		require.NoError(t, err, value)
		require.True(t, want.Equal(tx.BeginTime), "%s: got %s", value, tx.BeginTime)
		require.Empty(t, tx.Actions)
	}
}

// TestParse_LongScriptletLine reads past scriptlet lines longer than a scanner token.
func TestParse_LongScriptletLine(t *testing.T) {
	t.Parallel()

	report := dnf4Report +
		"   2 " + strings.Repeat("warning: unit file changed on disk ", 4096) + "\n" +
		"    Upgrade  containerd.io-1.7.23-3.1.el9.x86_64   @docker-ce-stable"

	tx, err := Parse(strings.NewReader(report), time.UTC)
	require.NoError(t, err)
	require.Equal(t, 57, tx.ID)

	upgrades := tx.Upgrades()
	require.Len(t, upgrades, 3)
	require.Equal(t, "containerd.io-1.7.23-3.1.el9.x86_64", upgrades[2].Package)
}

// TestParse_Errors rejects reports without a usable begin time.
func TestParse_Errors(t *testing.T) {
	t.Parallel()

	_, err := Parse(strings.NewReader("Transaction ID : 3\n    Upgrade foo-1.0 @repo\n"), time.UTC)
	require.ErrorIs(t, err, errNoBeginTime)

	_, err = Parse(strings.NewReader("Begin time : yesterday-ish\n"), time.UTC)
	require.ErrorIs(t, err, errBadBeginTime)

	_, err = Parse(strings.NewReader(""), time.UTC)
	require.ErrorIs(t, err, errNoBeginTime)
}

// fakeRunner returns canned output and records invocations.
type fakeRunner struct {
	// output is returned by every Run call.
	output string
	// err is returned by every Run call.
	err error
	// calls records the argv of every invocation.
	calls [][]string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))

	return []byte(f.output), f.err
}

// TestCommandSource runs the configured query and parses its output.
func TestCommandSource(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{output: dnf4Report}
	source := NewCommandSource(runner, "dnf", []string{"history", "info", "last"}, time.UTC)

	tx, err := source.LastTransaction(context.Background())
	require.NoError(t, err)
	require.Equal(t, 57, tx.ID)
	require.Equal(t, [][]string{{"dnf", "history", "info", "last"}}, runner.calls)

	failing := NewCommandSource(&fakeRunner{err: errors.New("boom")}, "dnf", nil, nil)
	_, err = failing.LastTransaction(context.Background())
	require.ErrorContains(t, err, "query transaction history")

	garbage := NewCommandSource(&fakeRunner{output: "No transactions\n"}, "dnf", nil, time.UTC)
	_, err = garbage.LastTransaction(context.Background())
	require.ErrorContains(t, err, "parse transaction history")
}
