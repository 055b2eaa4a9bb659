package merge

// Resolve turns the newest-first commit list into merge decisions.
//
// Without patterns and without perCommit, the result is a single bulk decision
// using defaultStrategy. Otherwise every commit gets its own decision, oldest
// first: skip-tagged commits use StrategyOurs, the rest use defaultStrategy.
// An empty commit list yields no decisions.
func Resolve(commits []CommitRecord, patterns []string, perCommit bool, defaultStrategy Strategy) []Decision {
	if len(commits) == 0 {
		return nil
	}

	if !perCommit && len(patterns) == 0 {
		return []Decision{{Strategy: defaultStrategy}}
	}

	decisions := make([]Decision, 0, len(commits))
	for index := len(commits) - 1; index >= 0; index-- {
		commit := commits[index]
		decision := Decision{Commit: &commit, Strategy: defaultStrategy}
		if matchedPattern, matched := MatchingPattern(commit.Message, patterns); matched {
			decision.Strategy = StrategyOurs
			decision.MatchedPattern = matchedPattern
		}
		decisions = append(decisions, decision)
	}
	return decisions
}
