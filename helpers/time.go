package helpers

import "time"

func IntMillisecondDefault(x int, def time.Duration) time.Duration {
	return intDefault(x, time.Millisecond, def)
}

func IntMicrosecondDefault(x int, def time.Duration) time.Duration {
	return intDefault(x, time.Microsecond, def)
}

func intDefault(x int, unit, def time.Duration) time.Duration {
	if x == 0 {
		return def
	}
	return time.Duration(x) * unit
}
