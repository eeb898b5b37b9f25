package internal

import (
	"regexp"
	"strings"
)

// perfectSignalPattern matches a quality percentage in the 90-99.x range as it
// appears in report link text, e.g. "(97.8%)". A literal "100%" substring is
// checked separately.
var perfectSignalPattern = regexp.MustCompile(`\(9[0-9](\.[0-9])?%`)

// Classification is the set of policy flags computed for a sighting from its
// subject name and link text. It is pure data; the Watchlists own the policy.
type Classification struct {
	Critical    bool // subject is on the watch-priority list
	Notable     bool // signal quality crossed the "perfect" threshold
	Suppressed  bool // subject is tracked but must never alert
	AlwaysAlert bool // subject alerts at any hour of the day
	ShouldTrack bool // subject is on any tracked list at all
}

// Watchlists holds the lowercased subject lists and answers classification
// queries. Built once from config at startup.
type Watchlists struct {
	alwaysAlert     map[string]struct{}
	alwaysIfNotable map[string]struct{}
	notableOnly     map[string]struct{}
	critical        map[string]struct{}
	noAlert         map[string]struct{}
	tracked         map[string]struct{}
}

func NewWatchlists(lists ListConfig) *Watchlists {
	w := &Watchlists{
		alwaysAlert:     toSet(lists.AlwaysAlert),
		alwaysIfNotable: toSet(lists.AlwaysIfNotable),
		notableOnly:     toSet(lists.NotableOnly),
		critical:        toSet(lists.Critical),
		noAlert:         toSet(lists.NoAlert),
	}

	// The tracked set is the union of every list: being on any of them is
	// what gets a subject admitted to the active collection.
	w.tracked = make(map[string]struct{})
	for _, set := range []map[string]struct{}{
		w.alwaysAlert, w.alwaysIfNotable, w.notableOnly, w.critical, w.noAlert,
	} {
		for name := range set {
			w.tracked[name] = struct{}{}
		}
	}

	return w
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[strings.ToLower(name)] = struct{}{}
	}
	return set
}

// Classify computes the flags for a subject name and the link text that came
// with the report. The name must already be lowercased.
func (w *Watchlists) Classify(name, link string) Classification {
	var c Classification

	if strings.Contains(link, "100%") || perfectSignalPattern.MatchString(link) {
		c.Notable = true
	}

	_, c.Critical = w.critical[name]
	_, c.Suppressed = w.noAlert[name]
	_, c.AlwaysAlert = w.alwaysAlert[name]
	_, c.ShouldTrack = w.tracked[name]

	return c
}

// IsAlwaysAlert reports whether the subject alerts regardless of hour.
func (w *Watchlists) IsAlwaysAlert(name string) bool {
	_, ok := w.alwaysAlert[strings.ToLower(name)]
	return ok
}
