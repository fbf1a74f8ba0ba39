package main

import (
	"fmt"
	"time"
)

func parseDateFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Now().In(cfg.Location()), nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, cfg.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
