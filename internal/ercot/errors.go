package ercot

import "errors"

// Parse and extraction failures. All of these are local to one poll cycle:
// the coordinator logs and counts them, keeps serving the last good price,
// and lets the next scheduled poll act as the retry.
var (
	// ErrMalformedDocument indicates the fetched page contained no
	// recognizable table cells at all.
	ErrMalformedDocument = errors.New("no table data found in document")

	// ErrColumnCount indicates the number of extracted cells is not a
	// positive multiple of the fixed row width, so rows cannot be framed.
	ErrColumnCount = errors.New("cell count is not a multiple of row width")

	// ErrPriceParse indicates the selected price cell did not parse as a
	// decimal number. ERCOT occasionally publishes placeholder text in
	// price cells.
	ErrPriceParse = errors.New("price cell is not numeric")
)
