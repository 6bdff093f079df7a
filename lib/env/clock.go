package env

import "time"

// SystemClock implements the clock part of Env with the wall clock.
type SystemClock struct{}

func (SystemClock) NowMicros() uint64 {
	return uint64(time.Now().UnixMicro())
}

func (SystemClock) NowNanos() uint64 {
	return uint64(time.Now().UnixNano())
}

func (SystemClock) GetCurrentTime() int64 {
	return time.Now().Unix()
}

func (SystemClock) SleepForMicroseconds(micros int64) {
	if micros > 0 {
		time.Sleep(time.Duration(micros) * time.Microsecond)
	}
}
