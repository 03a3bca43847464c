package board

import (
	"strconv"
	"sync/atomic"
	"time"
)

var lastTimestamp int64

// nextTimestamp returns a strictly increasing unix-nano timestamp so two
// tasks created in the same instant never share an identity.
func nextTimestamp() int64 {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastTimestamp)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastTimestamp, last, now) {
			return now
		}
	}
}

// localTaskID synthesizes an identity for a task the server never
// acknowledged. Such tasks stay local-only for the rest of the session.
func localTaskID() string {
	return strconv.FormatInt(nextTimestamp(), 10)
}
