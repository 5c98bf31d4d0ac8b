// Package roster reads and writes the participant roster file.
//
// # File Format
//
// The roster is a UTF-8 text file with one participant entry per line.
// Each line names a viewer and, optionally, how many credits the entry
// carries. All of these are accepted and mean the same thing:
//
//	钱五          one credit
//	钱五(3        three credits, ASCII bracket, open
//	钱五（3        three credits, full-width bracket, open
//	钱五(3)       three credits, ASCII bracket, closed
//	钱五（3）      three credits, full-width bracket, closed
//
// The writer always emits a single canonical form: "name（N" when N > 1
// and a bare "name" otherwise.
//
// # Entries
//
// Every line becomes its own Entry. A viewer who topped up three times
// appears three times, and the entries are never merged; the queue engine
// spends across them when a priority action costs more than any one entry
// holds. Index is the 1-based line ordinal and is unique within a load.
//
// # Durability
//
// Save goes through natefinch/atomic: the content is written to a temp
// file in the same directory, synced, and renamed over the roster. A crash
// mid-write leaves either the old roster or the new one, never a torn file.
//
// # Reloading
//
// ReloadPreservingQueue re-reads the file while the queue is live. Entries
// referenced by tickets are matched to their fresh counterparts so that a
// later debit lands on current data instead of a stale copy.
package roster
