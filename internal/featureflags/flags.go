// Package featureflags switches optional site features on, off, or for a
// percentage of signed-in users.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Known flags.
const (
	// PostImages allows attaching an image to a post.
	PostImages = "post_images"
	// LiveNotifications enables the /ws notification stream.
	LiveNotifications = "live_notifications"
)

// Defaults apply when FEATURE_FLAGS does not mention a flag.
var Defaults = map[string]string{
	PostImages:        "on",
	LiveNotifications: "on",
}

// Set evaluates flags from a comma-separated list layered over Defaults.
// Example: "post_images=off,live_notifications=25%"
type Set struct {
	flags map[string]string
}

// Parse builds a Set from raw. Malformed pairs are skipped.
func Parse(raw string) *Set {
	out := make(map[string]string, len(Defaults))
	for k, v := range Defaults {
		out[k] = v
	}

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return &Set{flags: out}
}

// Enabled reports whether name is on for userID.
// Values: on/true/1, off/false/0, or N% for a stable per-user rollout.
// A nil Set falls back to Defaults.
func (s *Set) Enabled(name string, userID uint) bool {
	flags := Defaults
	if s != nil {
		flags = s.flags
	}
	value, ok := flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	switch {
	case err != nil || pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < pct
}

// Snapshot returns every flag's state for one user.
func (s *Set) Snapshot(userID uint) map[string]bool {
	names := Defaults
	if s != nil {
		names = s.flags
	}
	out := make(map[string]bool, len(names))
	for name := range names {
		out[name] = s.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}
