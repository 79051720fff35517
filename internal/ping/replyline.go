package ping

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ReplyStatus identifies the kind of diagnostic line a probe primitive
// produced.
type ReplyStatus int

const (
	StatusEcho ReplyStatus = iota
	StatusTimeout
	StatusUnreachable
)

// The system ping localizes its vocabulary, so recognized phrases are an
// explicit enumerated set per status rather than ad-hoc substring probing.
// English and German out of the box; extensible via RegisterReplyPhrases.
var replyPhrases = map[ReplyStatus][]string{
	StatusEcho: {
		"Reply from",
		"bytes from",
		"Antwort von",
	},
	StatusTimeout: {
		"Request timed out",
		"Request timeout",
		"request timeout",
		"Zeitüberschreitung der Anforderung",
	},
	StatusUnreachable: {
		"Destination host unreachable",
		"Destination Host Unreachable",
		"Zielhost nicht erreichbar",
	},
}

// RegisterReplyPhrases extends the recognized vocabulary for a status.
// Call before probing starts; the registry is not synchronized.
func RegisterReplyPhrases(status ReplyStatus, phrases ...string) {
	replyPhrases[status] = append(replyPhrases[status], phrases...)
}

// latencyPattern matches the conventional latency token, tolerating the
// "time<1ms" form, decimal fractions with either separator, and the German
// "Zeit=" spelling.
var latencyPattern = regexp.MustCompile(`(?i)(?:time|zeit)[=<]([0-9]+(?:[.,][0-9]+)?)\s*ms`)

// statusOf reports the reply status of a diagnostic line, if recognized.
func statusOf(line string) (ReplyStatus, bool) {
	for status, phrases := range replyPhrases {
		for _, phrase := range phrases {
			if strings.Contains(line, phrase) {
				return status, true
			}
		}
	}
	return 0, false
}

// replyLine returns the first output line carrying a recognized phrase or a
// latency token.
func replyLine(output string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, ok := statusOf(line); ok {
			return line, true
		}
		if latencyPattern.MatchString(line) {
			return line, true
		}
	}
	return "", false
}

// firstNonEmptyLine is the fallback when no line is recognized, so the raw
// message still shows whatever diagnostic the primitive emitted.
func firstNonEmptyLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

// extractLatency parses the millisecond token from a reply line.
func extractLatency(line string) (time.Duration, bool) {
	m := latencyPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(v * float64(time.Millisecond)), true
}
