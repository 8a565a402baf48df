// Package classify assigns a coarse importance level to new items.
//
// The scoring is a fixed rule table over the item text, not NLP: rules run
// in order and may only raise the running severity, never lower it.
package classify

import (
	"strings"

	"watchtower/internal/config"
	"watchtower/internal/source"
)

// Level is the S/A/B/C importance scale, S most severe.
type Level int

const (
	LevelC Level = iota
	LevelB
	LevelA
	LevelS
)

func (l Level) String() string {
	switch l {
	case LevelS:
		return "S"
	case LevelA:
		return "A"
	case LevelB:
		return "B"
	default:
		return "C"
	}
}

// Glyph is the marker prefixed to comments for quick visual triage.
func (l Level) Glyph() string {
	switch l {
	case LevelS:
		return "🟥"
	case LevelA:
		return "🟧"
	case LevelB:
		return "🟨"
	default:
		return "🟦"
	}
}

var criticalKeywords = []string{
	"urgent", "critical", "rce", "remote code", "privilege escalation", "zero-day", "0day",
}

var vulnerabilityKeywords = []string{
	"vulnerability", "xss", "csrf", "sql", "authentication", "leak", "path traversal",
}

var grantRelevanceKeywords = []string{
	"it", "dx", "equipment", "labor-saving",
}

// Summaries built by the grants adapter label the upper subsidy limit with
// this marker; the sentinel values are matched as literal substrings of the
// formatted amount.
const grantMaxMarker = "max:"

var grantLargeAmounts = []string{"10000000", "5000000", "3000000"}

const (
	commentDefault  = "Monitored target changed. Review recommended."
	commentCritical = "High-risk indicators present. Share with IT/security contacts immediately."
	commentSecurity = "Security-related. Inventory affected products and versions first."
	commentLaw      = "Possible law amendment or update. Check impact on contracts, internal policies, and labor workflows."
	commentGrant    = "Grant opportunity. Check the deadline and requirements first; if they fit, move fast."
)

// Classify scores one item against the rule table. Pure and total: every
// input gets a level, and the returned comment carries the level's glyph.
func Classify(item source.Item, target config.Target) (Level, string) {
	text := strings.ToLower(source.SafeText(item.Title)) + " " + strings.ToLower(source.SafeText(item.Summary))

	level := LevelC
	comment := commentDefault

	if containsAny(text, criticalKeywords) {
		level = LevelS
		comment = commentCritical
	} else if containsAny(text, vulnerabilityKeywords) {
		level = LevelA
		comment = commentSecurity
	}

	if target.Kind == config.KindLawUpdates {
		if containsAnyFold(text, target.ImportantKeywords) {
			level = raiseTo(level, LevelA)
			comment = commentLaw
		}
	}

	if target.Kind == config.KindGrants {
		if level == LevelC && containsAny(text, grantRelevanceKeywords) {
			level = LevelB
		}
		summary := source.SafeText(item.Summary)
		if strings.Contains(summary, grantMaxMarker) && containsAny(summary, grantLargeAmounts) {
			level = raiseTo(level, LevelA)
			comment = commentGrant
		}
	}

	return level, level.Glyph() + " " + comment
}

// raiseTo never lowers the running level.
func raiseTo(cur, min Level) Level {
	if cur > min {
		return cur
	}
	return min
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func containsAnyFold(text string, keywords []string) bool {
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
