// Package featureflags evaluates rollout switches configured through
// FEATURE_FLAGS, e.g. "realtime_feed=on" or "realtime_feed=25%".
//
// Flags are keyed by viewer, not by whoever triggered an action: a partial
// rollout of realtime_feed decides which feed subscribers receive events.
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"

	"photoshare/internal/models"
)

// Known flags.
const (
	// RealtimeFeed delivers photo, comment and like events to websocket viewers.
	RealtimeFeed = "realtime_feed"
)

// rule is a parsed flag value. percent is 0..100; on/off map to 100 and 0.
type rule struct {
	raw     string
	percent int
}

type Manager struct {
	rules map[string]rule
}

// NewManager parses a comma-separated name=value list. Values are
// on/true/1, off/false/0 or N%. Pairs that fail to parse are skipped, so a
// typo disables the flag rather than failing startup.
func NewManager(raw string) *Manager {
	rules := make(map[string]rule)
	for pair := range strings.SplitSeq(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, value = normalize(name), normalize(value)
		if name == "" || value == "" {
			continue
		}
		rules[name] = rule{raw: value, percent: parsePercent(value)}
	}
	return &Manager{rules: rules}
}

func parsePercent(value string) int {
	switch value {
	case "on", "true", "1":
		return 100
	case "off", "false", "0":
		return 0
	}
	digits, ok := strings.CutSuffix(value, "%")
	if !ok {
		return 0
	}
	pct, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return min(max(pct, 0), 100)
}

// Enabled evaluates name for viewer. Partial rollouts bucket viewers
// deterministically on the canonical ID; anonymous viewers are only inside
// a rollout at 100%.
func (m *Manager) Enabled(name string, viewer models.ID) bool {
	if m == nil {
		return false
	}
	r, ok := m.rules[normalize(name)]
	switch {
	case !ok, r.percent == 0:
		return false
	case r.percent == 100:
		return true
	case viewer.IsZero():
		return false
	}
	return rolloutBucket(name, viewer) < r.percent
}

// Reachable reports whether name is enabled for at least some viewers.
// Publishers use it to skip work when a flag is off everywhere.
func (m *Manager) Reachable(name string) bool {
	if m == nil {
		return false
	}
	return m.rules[normalize(name)].percent > 0
}

// Raw returns the configured values as written, normalized.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.rules))
	for name, r := range m.rules {
		out[name] = r.raw
	}
	return out
}

// Snapshot evaluates every configured flag for viewer.
func (m *Manager) Snapshot(viewer models.ID) map[string]bool {
	out := make(map[string]bool, len(m.rules))
	for name := range m.rules {
		out[name] = m.Enabled(name, viewer)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, viewer models.ID) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + viewer.Canonical()))
	return int(h.Sum32() % 100)
}
