package service

import "time"

func (tb *TokenBucket) SetClock(now func() time.Time) { tb.now = now }

func (tb *TokenBucket) EvictIdle(idle time.Duration) int { return tb.evictIdle(idle) }
