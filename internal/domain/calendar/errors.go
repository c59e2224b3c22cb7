package calendar

import "errors"

var (
	ErrInvalidCheckIn     = errors.New("check_in is missing or unparseable")
	ErrInvalidCheckInDate = errors.New("check_in_date is missing or unparseable")
)
