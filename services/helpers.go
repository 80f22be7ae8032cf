package services

import "time"

func validDateKey(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}
