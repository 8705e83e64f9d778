// Package history records screening runs in a SQLite database.
//
// Every scan, successful or not, leaves one row describing the media,
// lexicon, engine, final pipeline state, error kind and segment counts. The
// CLI "history" command lists them. The database is optional: an empty
// paths.history_db disables recording.
package history
