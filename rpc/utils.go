package rpc

import "time"

func afterMillis(ms int64) <-chan time.Time {
	return time.After(time.Duration(ms) * time.Millisecond)
}
