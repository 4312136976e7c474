// Package sample is a small fixture repository for the analyzer.
package sample

import "strconv"

// Sum adds every value
func Sum(values ...int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

// Clamp limits n to hi
func Clamp(n, hi int) int {
	if n > hi {
		return hi
	}
	return n
}

// Counter tallies values per label
type Counter struct {
	counts map[string]int
}

// Inc bumps the count for label
func (c *Counter) Inc(label string) {
	c.counts[label]++
}

func (c *Counter) String() string {
	return strconv.Itoa(len(c.counts)) + " labels"
}
