package domain

import "errors"

// ErrAlreadyRunning is returned when Run is called on a running driver.
var ErrAlreadyRunning = errors.New("domain driver already running")
