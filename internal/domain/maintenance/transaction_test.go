package maintenance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestTransaction_BeganOn checks calendar-day comparison, including nil and zero times.
func TestTransaction_BeganOn(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC)

	cases := []struct {
		name  string
		begin time.Time
		want  bool
	}{
		{"same day earlier", time.Date(2026, time.October, 18, 0, 1, 0, 0, time.UTC), true},
		{"same day later", time.Date(2026, time.October, 18, 23, 59, 0, 0, time.UTC), true},
		{"yesterday", time.Date(2026, time.October, 17, 23, 59, 0, 0, time.UTC), false},
		{"same day last year", time.Date(2025, time.October, 18, 9, 0, 0, 0, time.UTC), false},
		{"zero", time.Time{}, false},
	}

	for _, tc := range cases {
		tx := &Transaction{BeginTime: tc.begin}
		require.Equal(t, tc.want, tx.BeganOn(now), tc.name)
	}

	require.False(t, (*Transaction)(nil).BeganOn(now))
}

// TestTransaction_Upgrades ensures only the Upgrade marker is kept, not Upgraded.
func TestTransaction_Upgrades(t *testing.T) {
	t.Parallel()

	tx := &Transaction{
		Actions: []Action{
			{Kind: "Upgrade", Package: "docker-ce-3:27.1.2-1.el9.x86_64"},
			{Kind: "Upgraded", Package: "docker-ce-3:27.1.1-1.el9.x86_64"},
			{Kind: "Install", Package: "kernel-5.14.0-427.el9.x86_64"},
			{Kind: "Upgrade", Package: "openssl-1:3.0.7-27.el9.x86_64"},
		},
	}

	upgrades := tx.Upgrades()
	require.Len(t, upgrades, 2)
	require.Equal(t, "docker-ce-3:27.1.2-1.el9.x86_64", upgrades[0].Package)
	require.Equal(t, "openssl-1:3.0.7-27.el9.x86_64", upgrades[1].Package)
	require.Nil(t, (*Transaction)(nil).Upgrades())
}

// TestPrefixSet_Match covers loose prefix matching on the text after the marker.
func TestPrefixSet_Match(t *testing.T) {
	t.Parallel()

	prefixes := PrefixSet{"containerd.io", "docker-ce", "docker-buildx-plugin"}

	cases := []struct {
		line   string
		prefix string
		ok     bool
	}{
		{"Upgrade docker-ce-3:27.1.2-1.el9.x86_64 @docker-ce-stable", "docker-ce", true},
		{"Upgrade    docker-ce-cli-1:27.1.2-1.el9.x86_64 @docker-ce-stable", "docker-ce", true},
		{"Upgrade containerd.io-1.7.20-3.1.el9.x86_64 @docker-ce-stable", "containerd.io", true},
		{"Upgrade docker-buildx-plugin-0.16.1-1.el9.x86_64 @docker-ce-stable", "docker-buildx-plugin", true},
		{"Upgrade some-unrelated-pkg-1.0-1.el9.x86_64 @repo", "", false},
		{"Upgrade Docker-ce-3:27.1.2-1.el9.x86_64 @docker-ce-stable", "", false},
		{"Upgrade python3-docker-ce-helper-1.0 @repo", "", false},
	}

	for _, tc := range cases {
		prefix, ok := prefixes.Match(Action{Kind: UpgradeAction, Line: tc.line})
		require.Equal(t, tc.ok, ok, tc.line)
		require.Equal(t, tc.prefix, prefix, tc.line)
	}

	// Without the original line the package identifier is used.
	prefix, ok := prefixes.Match(Action{Kind: UpgradeAction, Package: "containerd.io-1.7.20"})
	require.True(t, ok)
	require.Equal(t, "containerd.io", prefix)

	_, ok = PrefixSet{""}.Match(Action{Kind: UpgradeAction, Package: "anything"})
	require.False(t, ok)
}
