package memory

import "time"

func ptr[T any](v T) *T {
	return &v
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
	return &t
}
