// Package record defines the atomic observation written to storage and the
// normalization rules applied to raw extraction output.
package record

import (
	"strings"
	"time"
)

// DayFormat is the canonical calendar-day representation used across backends.
const DayFormat = "2006-01-02"

// Logical table names. Both marketplaces write into the same two tables;
// categories are distinguished only by their labels.
const (
	TableProjects   = "projects"
	TableFreelances = "freelances"
)

// Tables lists every logical table the stores manage.
var Tables = []string{TableProjects, TableFreelances}

// Record is one (date, category, count, href) observation for a logical table.
type Record struct {
	Date     time.Time
	Category string
	Num      int
	Href     string
}

// Day renders the record date at calendar-day granularity.
func (r Record) Day() string {
	return r.Date.Format(DayFormat)
}

// DayOf truncates a timestamp to its calendar day. Records from one crawl run
// all carry the day captured at run start, even if the run spans midnight.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Normalize prepares raw crawl output for the store: categories are trimmed,
// entries without a category are dropped, negative counts are clamped to zero,
// and same-(day, category) duplicates collapse last-write-wins so a single
// batch never violates the store's uniqueness constraint against itself.
func Normalize(recs []Record) []Record {
	out := make([]Record, 0, len(recs))
	index := make(map[string]int, len(recs))
	for _, r := range recs {
		r.Category = strings.TrimSpace(r.Category)
		if r.Category == "" {
			continue
		}
		if r.Num < 0 {
			r.Num = 0
		}
		key := r.Day() + "\x00" + r.Category
		if i, ok := index[key]; ok {
			out[i] = r
			continue
		}
		index[key] = len(out)
		out = append(out, r)
	}
	return out
}
