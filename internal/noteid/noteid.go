// Package noteid generates fresh note identifiers.
package noteid

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout formats timestamp ids as YYYYMMDDHHMMSS.
const TimestampLayout = "20060102150405"

// Policy names accepted in configuration.
const (
	PolicySequential = "sequential"
	PolicyTimestamp  = "timestamp"
)

// Generator produces an id that is not in existing.
type Generator interface {
	Next(existing []string) string
}

// New returns the Generator for a configured policy name. now is only used by
// the timestamp policy; nil means time.Now.
func New(policy string, now func() time.Time) (Generator, error) {
	switch strings.ToLower(policy) {
	case "", PolicySequential:
		return Sequential{}, nil
	case PolicyTimestamp:
		if now == nil {
			now = time.Now
		}
		return Timestamp{Now: now}, nil
	}
	return nil, fmt.Errorf("noteid: unknown id policy %q (want %s or %s)", policy, PolicySequential, PolicyTimestamp)
}

// Sequential returns one more than the largest numeric id, or "1" when there
// is none. Non-numeric ids are ignored.
type Sequential struct{}

func (Sequential) Next(existing []string) string {
	var highest uint64
	for _, id := range existing {
		n, err := strconv.ParseUint(id, 10, 64)
		if err == nil && n > highest {
			highest = n
		}
	}
	return strconv.FormatUint(highest+1, 10)
}

// Timestamp formats the current time. When the candidate is taken it moves
// forward one second at a time until it is free, so back-to-back creations
// within the same second still get distinct ids.
type Timestamp struct {
	Now func() time.Time
}

func (g Timestamp) Next(existing []string) string {
	taken := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		taken[id] = struct{}{}
	}
	t := g.Now()
	for {
		id := t.Format(TimestampLayout)
		if _, ok := taken[id]; !ok {
			return id
		}
		t = t.Add(time.Second)
	}
}
