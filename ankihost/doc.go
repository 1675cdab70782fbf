// Package ankihost adapts an Anki collection database to the meld
// interfaces.
//
// [Collection] is a read-only meld.HistorySource over the host's
// SQLite file: deck snapshots, per-deck review logs, and the FSRS
// weights already stored on scheduling presets. [PresetScope] is a
// meld.PresetGuard that points a deck at a scratch clone of its preset
// while an optimizer runs and restores the original configuration
// afterwards; optimizers that never read host preset state should use
// meld.NopGuard instead.
//
// Both the modern schema (decks in their own table) and the legacy
// schema (decks and preset configs as JSON in the col row) are
// supported for reading; PresetScope requires the legacy schema, the
// only one whose preset structure is mutable through SQL.
package ankihost
