// Package gitrepo inspects git working copies through go-git.
//
// RepositoryManager reports the checked-out branch, worktree cleanliness,
// configured remotes, and upstream tracking so that mutating operations can stay
// with the git binary while read-only checks avoid spawning processes.
package gitrepo
