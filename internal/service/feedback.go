package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	highlightOpen  = "<b>"
	highlightClose = "</b>"

	minScore = 0
	maxScore = 100
)

// Feedback is the structured form of an AI reply.
type Feedback struct {
	Score      int      `json:"score"`
	Feedback   string   `json:"feedback"`
	Highlights []string `json:"highlights"`
}

// ParseFeedback reads the reply grammar "Score: <int>\nFeedback: <text>\n<highlight>*".
// Header labels are not checked; each header line only needs a colon.
// Text after the first colon of the feedback line is kept verbatim, including further colons.
func ParseFeedback(reply string) (Feedback, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(reply), "\r\n", "\n")
	lines := strings.Split(normalized, "\n")
	if len(lines) < 2 {
		return Feedback{}, wrapDomain(ErrInvalidFeedbackFormat, fmt.Errorf("expected at least 2 lines, got %d", len(lines)))
	}

	_, rawScore, ok := strings.Cut(lines[0], ":")
	if !ok {
		return Feedback{}, wrapDomain(ErrInvalidFeedbackFormat, fmt.Errorf("score line has no colon"))
	}

	score, err := strconv.Atoi(strings.TrimSpace(rawScore))
	if err != nil {
		return Feedback{}, wrapDomain(ErrInvalidFeedbackFormat, fmt.Errorf("score %q is not an integer", strings.TrimSpace(rawScore)))
	}
	if score < minScore || score > maxScore {
		return Feedback{}, wrapDomain(ErrInvalidFeedbackFormat, fmt.Errorf("score %d outside %d..%d", score, minScore, maxScore))
	}

	_, feedback, ok := strings.Cut(lines[1], ":")
	if !ok {
		return Feedback{}, wrapDomain(ErrInvalidFeedbackFormat, fmt.Errorf("feedback line has no colon"))
	}

	highlights := make([]string, 0, len(lines)-2)
	for _, line := range lines[2:] {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			highlights = append(highlights, trimmed)
		}
	}

	return Feedback{
		Score:      score,
		Feedback:   strings.TrimSpace(feedback),
		Highlights: highlights,
	}, nil
}

type span struct {
	start int
	end   int
}

func (s span) overlaps(other span) bool {
	return s.start < other.end && other.start < s.end
}

// HighlightText wraps every literal occurrence of each highlight in <b></b>.
// Longer highlights claim text first; an occurrence overlapping an already
// claimed span is skipped, so wraps never nest. Equal-length highlights keep
// their input order.
func HighlightText(text string, highlights []string) string {
	candidates := uniqueHighlights(highlights)
	sort.SliceStable(candidates, func(i, j int) bool {
		return utf8.RuneCountInString(candidates[i]) > utf8.RuneCountInString(candidates[j])
	})

	var claimed []span
	for _, highlight := range candidates {
		offset := 0
		for offset < len(text) {
			idx := strings.Index(text[offset:], highlight)
			if idx < 0 {
				break
			}
			candidate := span{start: offset + idx, end: offset + idx + len(highlight)}
			offset = candidate.end

			free := true
			for _, existing := range claimed {
				if existing.overlaps(candidate) {
					free = false
					break
				}
			}
			if free {
				claimed = append(claimed, candidate)
			}
		}
	}

	if len(claimed) == 0 {
		return text
	}

	sort.Slice(claimed, func(i, j int) bool { return claimed[i].start < claimed[j].start })

	var builder strings.Builder
	builder.Grow(len(text) + len(claimed)*(len(highlightOpen)+len(highlightClose)))
	cursor := 0
	for _, s := range claimed {
		builder.WriteString(text[cursor:s.start])
		builder.WriteString(highlightOpen)
		builder.WriteString(text[s.start:s.end])
		builder.WriteString(highlightClose)
		cursor = s.end
	}
	builder.WriteString(text[cursor:])

	return builder.String()
}

func uniqueHighlights(highlights []string) []string {
	seen := make(map[string]struct{}, len(highlights))
	result := make([]string, 0, len(highlights))
	for _, highlight := range highlights {
		trimmed := strings.TrimSpace(highlight)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
