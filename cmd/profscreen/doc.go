// Package main hosts the profscreen CLI entrypoint and command graph.
//
// The Cobra-based command tree runs screening passes over media files,
// renders saved reports, lists run history, checks the local toolchain, and
// scaffolds configuration. It centralizes configuration resolution and
// structured logging setup so subcommands can focus on user experience
// instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
