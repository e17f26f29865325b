package model

import "time"

// Counter is the per-category sequence document
type Counter struct {
	Identifier string
	Seq        int64
	UpdatedAt  time.Time
}
