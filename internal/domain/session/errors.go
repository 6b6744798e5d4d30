package session

import "errors"

var (
	// ErrSessionBusy indicates the per-session lock could not be acquired
	// within the configured wait bound.
	ErrSessionBusy = errors.New("session busy")
)
