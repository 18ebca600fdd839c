// Package triage is the core of Triago's security log pipeline. It defines
// the Verdict domain model, the ordered classifier tier chain (model, mock,
// heuristic), and the Pipeline orchestrator that turns raw log text into a
// verdict without ever surfacing an error.
package triage
