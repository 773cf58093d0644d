package clock

import "time"

// Clock abstracts the wall clock so date-sensitive code (the milestone
// scanner's "today") can be pinned in tests.
type Clock interface {
	Now() time.Time
}

type realClock struct {
	loc *time.Location
}

func New(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &realClock{loc: loc}
}

func (c *realClock) Now() time.Time {
	return time.Now().In(c.loc)
}

type FakeClock struct {
	now time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
