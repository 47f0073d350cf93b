package schemas

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Panchalparth471/app-backend/internal/models"
)

// Separators tried by the line parser, most specific first.
var lineSeparators = []string{" - ", " — ", " – ", ":", " | "}

var (
	durationPattern    = regexp.MustCompile(`(?i)(\d{1,2})\s*min`)
	trailingDuration   = regexp.MustCompile(`(?i)\s*[-–—]?\s*\(?\d{1,2}\s*min(?:ute)?s?\)?\.?\s*$`)
	leadingEnumeration = regexp.MustCompile(`^(?:\s*(?:\d{1,3}\s*[.):\]]|[-*•#>]+|\*\*))+\s*`)
)

const (
	wrappingPunctuation  = "*\"'`_ "
	minSegmentsPerLine   = 3
	contentSegmentJoiner = " - "
)

// ParseStoryCandidates turns model output into at most count candidates.
// A JSON array anywhere in text is preferred; when it cannot be decoded every
// line is parsed as "title - description - content". Never fails; the result
// may be empty or shorter than count.
func ParseStoryCandidates(text string, count, childAge int) []models.GenerationCandidate {
	if count <= 0 {
		return nil
	}
	ageRange := models.DeriveAgeRange(childAge)

	if candidates, ok := parseStructured(text, count, ageRange); ok {
		return candidates
	}
	return parseLines(text, count, ageRange)
}

// parseStructured decodes the span between the first '[' and the last ']'.
// ok is false when no such span exists, it is not a JSON array, or no
// element yields a usable candidate.
func parseStructured(text string, count int, ageRange models.AgeRange) ([]models.GenerationCandidate, bool) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end <= start {
		return nil, false
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(text[start:end+1]), &items); err != nil {
		return nil, false
	}

	candidates := make([]models.GenerationCandidate, 0, count)
	for _, raw := range items {
		if len(candidates) >= count {
			break
		}
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			continue
		}
		title := strings.TrimSpace(stringField(obj, "title"))
		content := strings.TrimSpace(stringField(obj, "content"))
		if title == "" || content == "" {
			continue
		}
		candidates = append(candidates, models.GenerationCandidate{
			Title:       models.Truncate(title, models.MaxTitleLength),
			Description: models.Truncate(strings.TrimSpace(stringField(obj, "description")), models.MaxDescriptionLength),
			Content:     content,
			Duration:    durationField(obj["duration"]),
			AgeRange:    ageRange,
		})
	}
	return candidates, len(candidates) > 0
}

func parseLines(text string, count int, ageRange models.AgeRange) []models.GenerationCandidate {
	candidates := make([]models.GenerationCandidate, 0, count)
	for _, line := range getNonEmptyTrimmedLines(text) {
		if len(candidates) >= count {
			break
		}
		segments := splitLine(line)
		if segments == nil {
			continue
		}

		duration := models.DefaultDuration
		if m := durationPattern.FindStringSubmatch(line); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				duration = clampMinutes(n)
			}
		}

		title := stripTrailingDuration(cleanTitle(segments[0]))
		description := stripTrailingDuration(segments[1])
		content := strings.Join(segments[2:], contentSegmentJoiner)
		if title == "" || content == "" {
			continue
		}

		candidates = append(candidates, models.GenerationCandidate{
			Title:       models.Truncate(title, models.MaxTitleLength),
			Description: models.Truncate(description, models.MaxDescriptionLength),
			Content:     content,
			Duration:    duration,
			AgeRange:    ageRange,
		})
	}
	return candidates
}

// splitLine returns the trimmed segments for the first separator producing
// at least three of them, or nil.
func splitLine(line string) []string {
	for _, sep := range lineSeparators {
		parts := strings.Split(line, sep)
		if len(parts) < minSegmentsPerLine {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return nil
}

func cleanTitle(s string) string {
	s = leadingEnumeration.ReplaceAllString(s, "")
	return strings.Trim(s, wrappingPunctuation)
}

func stripTrailingDuration(s string) string {
	return strings.TrimSpace(trailingDuration.ReplaceAllString(s, ""))
}

func stringField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// durationField accepts numbers and numeric strings such as "12" or "12 min".
func durationField(v any) int {
	switch d := v.(type) {
	case float64:
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return models.DefaultDuration
		}
		return clampMinutes(int(math.Round(d)))
	case string:
		d = strings.TrimSpace(d)
		if n, err := strconv.Atoi(d); err == nil {
			return clampMinutes(n)
		}
		if m := durationPattern.FindStringSubmatch(d); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return clampMinutes(n)
			}
		}
	}
	return models.DefaultDuration
}

func clampMinutes(n int) int {
	return min(models.MaxDuration, max(models.MinDuration, n))
}

// getNonEmptyTrimmedLines splits text into trimmed, non-empty lines.
func getNonEmptyTrimmedLines(text string) []string {
	rawLines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(rawLines))
	for _, line := range rawLines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
