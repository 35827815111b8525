package application

// WdMsg reports that an operation started.
type WdMsg string

// DoneMsg carries an operation's one-line summary.
type DoneMsg string

// ErrMsg carries a failed operation's error.
type ErrMsg struct{ Err error }
