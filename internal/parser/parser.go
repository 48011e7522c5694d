// Package parser classifies single lines of downloader output into semantic
// events. Every function here is pure; unknown lines yield no match.
package parser

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// EventType is the category of a parsed line
type EventType int

const (
	EventTrackCount EventType = iota + 1
	EventStarted
	EventCompleted
	EventPercent
)

// Event is a semantic event extracted from a line of output
type Event struct {
	Type    EventType
	Count   int     // EventTrackCount
	Label   string  // EventStarted, EventCompleted
	Index   int     // EventStarted, when the line carries an (i/n) marker
	Total   int     // EventStarted, when the line carries an (i/n) marker
	Percent float64 // EventPercent
}

// Started is the result of a track-started match
type Started struct {
	Label string
	Index int
	Total int
}

// Rule is a single phrasing. The label is taken from the "label" group, a
// count from the "count" group.
type Rule struct {
	Pattern *regexp.Regexp

	// FileLabel reduces the captured label to a file base name without extension
	FileLabel bool
}

// Rules is the ordered set of phrasings understood for one backend.
// Within a category the first matching rule wins.
type Rules struct {
	TrackCount      []Rule
	CountExclusions []string // lower-case substrings that disqualify a count line
	Started         []Rule
	Completed       []Rule
	Percent         bool
}

var (
	percentRegex     = regexp.MustCompile(`(?i)^\s*\[download\].*?(\d+(?:\.\d+)?)%`)
	destinationRegex = regexp.MustCompile(`(?i)destination:\s*(.+)$`)
)

// ParseTrackCount extracts the number of items the backend reported finding
func (r *Rules) ParseTrackCount(line string) (int, bool) {
	lower := strings.ToLower(line)
	for _, exclusion := range r.CountExclusions {
		if strings.Contains(lower, exclusion) {
			return 0, false
		}
	}
	for _, rule := range r.TrackCount {
		match := rule.Pattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		raw := group(rule.Pattern, match, "count")
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			continue
		}
		return n, true
	}
	return 0, false
}

// ParseDownloadStarted extracts the label of a track that began downloading
func (r *Rules) ParseDownloadStarted(line string) (Started, bool) {
	for _, rule := range r.Started {
		match := rule.Pattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		label := cleanLabel(group(rule.Pattern, match, "label"), rule.FileLabel)
		if label == "" {
			continue
		}
		started := Started{Label: label}
		started.Index, _ = strconv.Atoi(group(rule.Pattern, match, "index"))
		started.Total, _ = strconv.Atoi(group(rule.Pattern, match, "total"))
		return started, true
	}
	return Started{}, false
}

// ParseDownloadCompleted extracts the label of a track that finished downloading
func (r *Rules) ParseDownloadCompleted(line string) (string, bool) {
	for _, rule := range r.Completed {
		match := rule.Pattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		label := cleanLabel(group(rule.Pattern, match, "label"), rule.FileLabel)
		if label == "" {
			continue
		}
		return label, true
	}
	return "", false
}

// Classify evaluates every category independently and returns the events
// found on the line, in the order count, started, completed, percent.
func (r *Rules) Classify(line string) []Event {
	var events []Event

	if n, ok := r.ParseTrackCount(line); ok {
		events = append(events, Event{Type: EventTrackCount, Count: n})
	}
	if started, ok := r.ParseDownloadStarted(line); ok {
		events = append(events, Event{
			Type:  EventStarted,
			Label: started.Label,
			Index: started.Index,
			Total: started.Total,
		})
	}
	if label, ok := r.ParseDownloadCompleted(line); ok {
		events = append(events, Event{Type: EventCompleted, Label: label})
	}
	if r.Percent {
		if percent, ok := ParsePercentProgress(line); ok {
			events = append(events, Event{Type: EventPercent, Percent: percent})
		}
	}

	return events
}

// ParsePercentProgress extracts the percentage from a "[download] ... NN.N%" line
func ParsePercentProgress(line string) (float64, bool) {
	match := percentRegex.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	percent, err := strconv.ParseFloat(match[1], 64)
	if err != nil || percent > 100 {
		return 0, false
	}
	return percent, true
}

// ParseDestination extracts the file name following a "Destination:" marker
func ParseDestination(line string) (string, bool) {
	match := destinationRegex.FindStringSubmatch(line)
	if match == nil {
		return "", false
	}
	dest := strings.TrimSpace(match[1])
	if dest == "" {
		return "", false
	}
	return dest, true
}

// ParseTrackCount uses the spotdl phrasings
func ParseTrackCount(line string) (int, bool) {
	return SpotDLRules.ParseTrackCount(line)
}

// ParseDownloadStarted uses the spotdl phrasings
func ParseDownloadStarted(line string) (Started, bool) {
	return SpotDLRules.ParseDownloadStarted(line)
}

// ParseDownloadCompleted uses the spotdl phrasings
func ParseDownloadCompleted(line string) (string, bool) {
	return SpotDLRules.ParseDownloadCompleted(line)
}

func group(re *regexp.Regexp, match []string, name string) string {
	idx := re.SubexpIndex(name)
	if idx < 0 || idx >= len(match) {
		return ""
	}
	return match[idx]
}

func cleanLabel(label string, fileLabel bool) string {
	label = strings.TrimSpace(label)
	if fileLabel && label != "" {
		base := filepath.Base(filepath.ToSlash(label))
		label = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return strings.TrimSpace(strings.Trim(label, "\"'“”‘’ \t"))
}
