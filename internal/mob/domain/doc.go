// Package domain holds the pure model of a mob session start: the settings
// value, the branch topology snapshot, the four join scenarios and the
// execution log and result of one orchestration run.
//
// Nothing in this package performs I/O.
package domain
