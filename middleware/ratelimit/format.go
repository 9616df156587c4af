package ratelimit

import (
	"math"
	"strconv"
	"time"
)

// isoMillis é o formato de Date.toISOString: UTC com milissegundos.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

func formatInt(v int) string { return strconv.Itoa(v) }

func formatReset(t time.Time) string { return t.UTC().Format(isoMillis) }

// formatRetryAfter arredonda para cima; Retry-After só aceita segundos inteiros.
func formatRetryAfter(d time.Duration) string {
	return strconv.Itoa(int(math.Ceil(d.Seconds())))
}
