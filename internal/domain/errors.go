package domain

import "errors"

var (
	// ErrDefinitionNotFound indicates the quiz content could not be loaded.
	ErrDefinitionNotFound = errors.New("quiz definition not found")
	// ErrNoIdentity is returned when an action requires a resolved user.
	ErrNoIdentity = errors.New("no user identity resolved")
	// ErrNoSession is returned when an action requires a loaded session.
	ErrNoSession = errors.New("no quiz session loaded")
	// ErrNotAdmin is returned when a non-admin client invokes a host action.
	ErrNotAdmin = errors.New("action restricted to the session host")
)
