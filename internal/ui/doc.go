// Package ui renders command lifecycle events as short console messages, such
// as "Merging 1.0.x in /repo" or "Pushed master to origin from /repo", while
// structured diagnostics keep flowing through the JSON logger.
package ui
