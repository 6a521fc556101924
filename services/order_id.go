package services

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"
)

// IDGenerator produces human-readable order ids: "FT-" followed by the last
// four digits of the millisecond clock and a number below 99. Two checkouts in
// the same millisecond window can collide.
type IDGenerator struct {
	Now  func() time.Time
	Intn func(n int) int
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{Now: time.Now, Intn: rand.IntN}
}

func (g *IDGenerator) Next() string {
	ms := strconv.FormatInt(g.Now().UnixMilli(), 10)
	if len(ms) > 4 {
		ms = ms[len(ms)-4:]
	}
	return fmt.Sprintf("FT-%s%d", ms, g.Intn(99))
}
