// Package database provides the SQLite run history for phetcrawl.
//
// Every crawl run can be recorded with its catalog and failed downloads.
// The history is only read by the compare command; crawls never consult it,
// so each run still recomputes the catalog from scratch.
//
// SQLite is used through modernc.org/sqlite, a CGO-free driver, so the
// history is a single file in the XDG data directory and the binary
// cross-compiles without a C toolchain.
package database
