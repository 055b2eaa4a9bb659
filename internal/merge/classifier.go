package merge

import "strings"

// IsSkipTagged reports whether any pattern occurs in message. Empty patterns never match.
func IsSkipTagged(message string, patterns []string) bool {
	_, matched := MatchingPattern(message, patterns)
	return matched
}

// MatchingPattern returns the first pattern, in the given order, that occurs in message.
func MatchingPattern(message string, patterns []string) (string, bool) {
	for _, pattern := range patterns {
		if len(pattern) == 0 {
			continue
		}
		if strings.Contains(message, pattern) {
			return pattern, true
		}
	}
	return "", false
}

// IsAllowed reports whether a commit may be merged under the allow patterns. Merge commits are always allowed.
func IsAllowed(commit CommitRecord, allowPatterns []string) bool {
	if commit.Merge || IsMergeCommitMessage(commit.Message) {
		return true
	}
	return IsSkipTagged(commit.Message, allowPatterns)
}

// SanitizePatterns drops empty patterns, which would otherwise match every commit. Whitespace inside a pattern is kept.
func SanitizePatterns(patterns []string) []string {
	sanitized := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if len(strings.TrimSpace(pattern)) == 0 {
			continue
		}
		sanitized = append(sanitized, pattern)
	}
	return sanitized
}
