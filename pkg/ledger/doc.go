// Package ledger remembers which targets were already harvested.
//
// The ledger is a single JSON file keyed by the target's storage key. A
// harvest run consults it first and skips targets it already holds unless
// forced; after persisting a batch the run records the session id, record
// count, terminal reason and output paths.
//
// By default the file lives in the platform data directory:
//   - Linux: $XDG_DATA_HOME/xscraper/ or ~/.local/share/xscraper/
//   - macOS: ~/Library/Application Support/xscraper/
//   - Windows: %APPDATA%/xscraper/
//
// Writes go through a temporary file and rename.
package ledger
