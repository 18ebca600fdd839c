// Package logparse scans raw security log text for anomaly signals and maps
// the extracted counts to a baseline severity. Everything here is a pure
// function of the input text; model-based refinement happens later in the
// triage pipeline.
package logparse

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Severity is the coarse risk level assigned to a log, ordered
// low < medium < high < critical.
type Severity string

const (
	SevLow      Severity = "low"
	SevMedium   Severity = "medium"
	SevHigh     Severity = "high"
	SevCritical Severity = "critical"
)

// Rank returns the ordering position of a severity, with unknown values below low.
func (s Severity) Rank() int {
	switch s {
	case SevLow:
		return 1
	case SevMedium:
		return 2
	case SevHigh:
		return 3
	case SevCritical:
		return 4
	default:
		return 0
	}
}

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// Detector names, fixed keys of ParsedLog.Counts.
const (
	DetectFailedLogin     = "failed_login"
	DetectSuspiciousPath  = "suspicious_path"
	DetectServerError     = "server_error"
	DetectPromptInjection = "llm_prompt_injection"
)

const (
	maxSamples   = 8
	maxSampleLen = 240
)

var detectors = []struct {
	name string
	re   *regexp.Regexp
}{
	{DetectFailedLogin, regexp.MustCompile(`(?i)failed login|authentication failed|invalid password`)},
	{DetectSuspiciousPath, regexp.MustCompile(`(?i)/admin|/wp-login|/phpmyadmin|union select|' or 1=1|--`)},
	{DetectServerError, regexp.MustCompile(`\b5\d{2}\b`)},
	{DetectPromptInjection, regexp.MustCompile(`(?i)ignore previous|disregard all|system prompt|leak data`)},
}

var ipRe = regexp.MustCompile(`(\d{1,3}\.){3}\d{1,3}`)

// ParsedLog holds the anomaly signals extracted from one block of log text.
type ParsedLog struct {
	LineCount int            `json:"line_count"`
	Counts    map[string]int `json:"counts"`
	TopIP     string         `json:"top_ip,omitempty"`
	Samples   []string       `json:"samples"`
}

// Extract splits text into non-empty lines and tests each line against the
// fixed detector set. A line may match several detectors and increments each
// matched counter independently. The first eight matching lines are kept as
// truncated samples, and the most frequent IPv4-shaped token across all lines
// becomes TopIP (first-seen wins ties).
func Extract(text string) ParsedLog {
	parsed := ParsedLog{Counts: make(map[string]int, len(detectors))}
	for _, d := range detectors {
		parsed.Counts[d.name] = 0
	}

	ipCounts := make(map[string]int)
	var ipOrder []string

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		parsed.LineCount++

		matched := false
		for _, d := range detectors {
			if d.re.MatchString(line) {
				parsed.Counts[d.name]++
				matched = true
			}
		}
		if matched && len(parsed.Samples) < maxSamples {
			parsed.Samples = append(parsed.Samples, truncate(line, maxSampleLen))
		}

		if ip := ipRe.FindString(line); ip != "" {
			if _, seen := ipCounts[ip]; !seen {
				ipOrder = append(ipOrder, ip)
			}
			ipCounts[ip]++
		}
	}

	best := 0
	for _, ip := range ipOrder {
		if ipCounts[ip] > best {
			best = ipCounts[ip]
			parsed.TopIP = ip
		}
	}

	return parsed
}

// BaselineSeverity maps detector counts to a severity via a fixed threshold
// ladder, first match wins. Injection and volumetric 5xx signals outrank raw
// volume of any other class, so they are checked first.
func BaselineSeverity(parsed ParsedLog) Severity {
	c := parsed.Counts
	if c[DetectPromptInjection] >= 3 || c[DetectServerError] >= 25 {
		return SevCritical
	}
	if c[DetectFailedLogin] >= 20 || c[DetectSuspiciousPath] >= 10 || c[DetectServerError] >= 10 {
		return SevHigh
	}
	for _, v := range c {
		if v >= 3 {
			return SevMedium
		}
	}
	return SevLow
}

// Summarize renders the nonzero signals as a compact comma-joined summary
// string. This feeds both the evidence index query and the classifier prompt.
func Summarize(parsed ParsedLog) string {
	c := parsed.Counts
	var bits []string
	if n := c[DetectFailedLogin]; n > 0 {
		bits = append(bits, fmt.Sprintf("failed_logins=%d", n))
	}
	if n := c[DetectSuspiciousPath]; n > 0 {
		bits = append(bits, fmt.Sprintf("suspicious_paths=%d", n))
	}
	if n := c[DetectServerError]; n > 0 {
		bits = append(bits, fmt.Sprintf("5xx=%d", n))
	}
	if n := c[DetectPromptInjection]; n > 0 {
		bits = append(bits, fmt.Sprintf("llm_injection_signals=%d", n))
	}
	if parsed.TopIP != "" {
		bits = append(bits, "top_ip="+parsed.TopIP)
	}
	if len(bits) == 0 {
		return "no obvious anomalies"
	}
	return strings.Join(bits, ", ")
}

// truncate caps s at limit characters, never splitting a multi-byte rune.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
