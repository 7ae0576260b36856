package saga

import "errors"

var (
	// ErrAlreadyTerminal marks a terminal-trigger re-delivery against an
	// instance that already reached that terminal state. Safe to ack.
	ErrAlreadyTerminal = errors.New("saga instance already terminal")

	// ErrConcurrentUpdate reports a lost compare-and-swap: another worker
	// moved the instance between our read and write.
	ErrConcurrentUpdate = errors.New("saga instance concurrently updated")
)
