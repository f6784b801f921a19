package domain

import "errors"

var (
	// ErrNotFound marks a lookup or conditional write that matched no row.
	ErrNotFound = errors.New("not found")

	// ErrSeatsInUse rejects a seat change whose resulting total could not cover
	// the currently active members.
	ErrSeatsInUse = errors.New("seats in use")
)
