// Package preflight provides readiness checks for the binaries and
// filesystem paths voicescribe depends on.
//
// The CLI "voicescribe doctor" command runs CheckSystemDeps and RunAll and
// renders the outcome. Each optional feature (log file, history journal,
// engine lock) is checked only when configured.
package preflight
