package common

import "fmt"

var (
	ErrInvalidPathError             = fmt.Errorf("invalid path")
	ErrRangeNotSatisfiableError     = fmt.Errorf("range not satisfiable")
	ErrScanProcessHasAlreadyStarted = fmt.Errorf("scan process has already started")
	ErrNoUsersConfiguredError       = fmt.Errorf("no valid users configured")
)
