package detector

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"formgate/internal/abuse/config"
	"formgate/internal/abuse/models"
	platformstrings "formgate/pkg/platform/strings"
)

// Sub-check contributions. They are additive and deliberately uncapped here;
// the composite is clamped exactly once, at fusion.
const (
	ContentPatternScore     = 30
	ContentLinksScore       = 40
	ContentCapsScore        = 25
	ContentEmailShapeScore  = 50
	ContentEmailDomainScore = 60

	// ContentTriggerThreshold is the internal sum at which the content
	// signal becomes independently disqualifying.
	ContentTriggerThreshold = 70

	maxLinksPerField = 2
	capsRatioLimit   = 0.5
	capsMinLength    = 20
)

// urlPattern matches http/https URLs, www. URLs, and bare domains with a
// path. The bare-domain variant requires a trailing "/" to avoid false
// positives on version strings or decimal numbers.
var urlPattern = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+|\S+\.(com|net|org|io|co|xyz|info|biz|ru|cn|tk|ml|ga|cf)/\S*)`)

// emailPattern is the minimal local@domain.tld shape; stricter RFC parsing
// buys nothing against bots that paste garbage.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Content runs independent heuristics over the configured free-text fields
// and email field, summing contributions into one signal. Its reason joins
// the sub-check reasons in evaluation order.
type Content struct {
	textFields []string
	emailField string
	patterns   []string
	domains    []string
}

// Name identifies the detector in logs, metrics, and trace events.
func (d *Content) Name() string { return "content" }

// NewContent builds the detector from the configured field names and
// vocabulary lists. Patterns and domains are matched case-insensitively.
func NewContent(cfg config.Content) *Content {
	return &Content{
		textFields: append([]string(nil), cfg.TextFields...),
		emailField: cfg.EmailField,
		patterns:   platformstrings.DedupeAndTrimLower(cfg.SpamPatterns),
		domains:    platformstrings.DedupeAndTrimLower(cfg.DisposableDomains),
	}
}

// Detect sums the sub-check scores across all configured fields. The result
// triggers once the internal sum reaches ContentTriggerThreshold; the score
// itself is reported uncapped.
func (d *Content) Detect(sub models.Submission) models.SignalResult {
	score := 0
	var reasons []string

	for _, field := range d.textFields {
		value, ok := sub.Field(field)
		if !ok || value == "" {
			continue
		}

		if d.matchesSpamPattern(value) {
			score += ContentPatternScore
			reasons = append(reasons, fmt.Sprintf("spam pattern detected in %s", field))
		}
		if countLinks(value) > maxLinksPerField {
			score += ContentLinksScore
			reasons = append(reasons, "too many links")
		}
		if hasExcessiveCaps(value) {
			score += ContentCapsScore
			reasons = append(reasons, "excessive capital letters")
		}
	}

	if d.emailField != "" {
		if email, ok := sub.FieldTrimmed(d.emailField); ok && email != "" {
			if !emailPattern.MatchString(email) {
				score += ContentEmailShapeScore
				reasons = append(reasons, "invalid email format")
			}
			if d.hasDisposableDomain(email) {
				score += ContentEmailDomainScore
				reasons = append(reasons, "suspicious email domain")
			}
		}
	}

	return models.SignalResult{
		Triggered: score >= ContentTriggerThreshold,
		Score:     score,
		Reason:    strings.Join(reasons, "; "),
	}
}

func (d *Content) matchesSpamPattern(value string) bool {
	lower := strings.ToLower(value)
	for _, pattern := range d.patterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

func (d *Content) hasDisposableDomain(email string) bool {
	_, domain, found := strings.Cut(email, "@")
	if !found || domain == "" {
		return false
	}
	domain = strings.ToLower(domain)
	for _, disposable := range d.domains {
		if strings.Contains(domain, disposable) {
			return true
		}
	}
	return false
}

func countLinks(value string) int {
	return len(urlPattern.FindAllString(value, -1))
}

// hasExcessiveCaps reports shouting: more than half the characters uppercase
// in a field long enough for the ratio to mean anything.
func hasExcessiveCaps(value string) bool {
	length := utf8.RuneCountInString(value)
	if length <= capsMinLength {
		return false
	}

	upper := 0
	for _, r := range value {
		if unicode.IsUpper(r) {
			upper++
		}
	}
	return float64(upper)/float64(length) > capsRatioLimit
}
