package service

import "time"

// Clock supplies the current time for age and validity computations.
type Clock interface {
	Now() time.Time
}
