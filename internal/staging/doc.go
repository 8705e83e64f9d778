// Package staging manages per-run scratch directories under the work dir.
//
// Each scan gets {work_dir}/{run-id}, removed when the run ends. Directories
// left behind by crashed or killed runs are swept by CleanStale once they
// exceed pipeline.stale_work_hours. Only directories named with a run id are
// touched.
package staging
