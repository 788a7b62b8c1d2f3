package domain

import "time"

// Challenge is an entry in the catalog of challenges users can complete.
type Challenge struct {
	ID         int64
	Title      string
	Difficulty string
	CreatedAt  time.Time
}
