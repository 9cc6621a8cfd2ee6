package db

import "errors"

var (
	// ErrIndexNotFound is returned when the FT index does not exist.
	ErrIndexNotFound = errors.New("db: index not found")
	// ErrIndexExists is returned by CreateIndex for a taken name.
	ErrIndexExists = errors.New("db: index already exists")
)

// Server commands, used as Error.Op.
const (
	OpCreateIndex = "FT.CREATE"
	OpDropIndex   = "FT.DROPINDEX"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpAggregate   = "FT.AGGREGATE"
	OpSynUpdate   = "FT.SYNUPDATE"
	OpSynDump     = "FT.SYNDUMP"
	OpJSONSet     = "JSON.SET"
	OpDel         = "DEL"
)

// Error names the server command that failed.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
