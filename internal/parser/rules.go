package parser

import "regexp"

// SpotDLRules understands spotdl's console output
var SpotDLRules = &Rules{
	TrackCount: []Rule{
		{Pattern: regexp.MustCompile(`(?i)\bfound\s+(?P<count>\d+)\s+(?:songs?|tracks?|items?)\b`)},
	},
	// the query phase repeats "Found N songs" before the real count is known
	CountExclusions: []string{"processing query"},
	Started: []Rule{
		{Pattern: regexp.MustCompile(`(?i)\bdownloading\s+(?P<label>.+?)\s*\((?P<index>\d+)/(?P<total>\d+)\)`)},
		{Pattern: regexp.MustCompile(`(?i)\bdownloading\s+(?P<label>.+?)\s+to\s+\S`)},
		{Pattern: regexp.MustCompile(`\[(?P<index>\d+)/(?P<total>\d+)\]\s*(?P<label>[^(]+?)\s*\(`)},
	},
	Completed: []Rule{
		{Pattern: regexp.MustCompile(`(?i)\bdownloaded\s+"(?P<label>[^"]+)"`)},
		{Pattern: regexp.MustCompile(`(?i)\bdownloaded\s+(?P<label>.+?)\s+in\s+\d[\d.:]*\s*(?:ms|s|secs?|seconds?|m|mins?|minutes?)?\b`)},
		{Pattern: regexp.MustCompile(`(?i)^(?:\[[^\]]*\]\s*)?(?P<label>.+?)\s+has\s+finished\s+downloading`)},
		{Pattern: regexp.MustCompile(`(?i)\bsuccessfully\s+downloaded\s+(?P<label>.+)$`)},
	},
}

// YTDLPRules understands yt-dlp's console output when run with --newline
var YTDLPRules = &Rules{
	TrackCount: []Rule{
		{Pattern: regexp.MustCompile(`(?i)\bdownloading\s+(?P<count>\d+)\s+(?:items?|videos?)\b`)},
		{Pattern: regexp.MustCompile(`(?i)\bfound\s+(?P<count>\d+)\s+(?:songs?|tracks?|items?|videos?)\b`)},
	},
	CountExclusions: []string{"processing query"},
	Started: []Rule{
		{Pattern: regexp.MustCompile(`(?i)^\s*\[download\]\s+destination:\s*(?P<label>.+)$`), FileLabel: true},
	},
	Completed: []Rule{
		{Pattern: regexp.MustCompile(`(?i)^\s*\[extractaudio\]\s+destination:\s*(?P<label>.+)$`), FileLabel: true},
		{Pattern: regexp.MustCompile(`(?i)^\s*\[extractaudio\]\s+not\s+converting\s+audio\s+(?P<label>.+?);`), FileLabel: true},
		{Pattern: regexp.MustCompile(`(?i)^\s*\[download\]\s+(?P<label>.+?)\s+has\s+already\s+been\s+downloaded`), FileLabel: true},
	},
	Percent: true,
}
