// Package preflight provides readiness checks for the tools, paths and
// services a screening run depends on.
//
// The CLI "profscreen doctor" command runs RunAll and renders each Result.
// "profscreen scan" calls CheckSystemDeps before doing any work so a missing
// ffmpeg fails fast instead of after the lexicon has been loaded.
package preflight
