package template

import (
	mathrand "math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/getmockd/faultmock/pkg/value"
)

// timestampLayout is RFC 3339 in UTC with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

var generators = map[string]func(*Engine) value.Value{
	"timestamp":   genTimestamp,
	"now":         genTimestamp,
	"date":        genDate,
	"uuid":        func(*Engine) value.Value { return value.String(uuid.NewString()) },
	"randomInt":   func(*Engine) value.Value { return value.Int(randomInt(1, 1000)) },
	"randomEmail": func(*Engine) value.Value { return value.String(randomEmail()) },
}

// IsGenerator reports whether name is a built-in generator.
func IsGenerator(name string) bool {
	_, ok := generators[name]
	return ok
}

func genTimestamp(e *Engine) value.Value {
	return value.String(e.now().UTC().Format(timestampLayout))
}

func genDate(e *Engine) value.Value {
	return value.String(e.now().UTC().Format(time.DateOnly))
}

// randomInt returns a random int in [lo, hi].
func randomInt(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + mathrand.IntN(hi-lo+1)
}

var (
	emailNames   = []string{"john", "jane", "bob", "alice", "charlie", "diana", "edward", "fiona"}
	emailDomains = []string{"example.com", "test.com", "mock.io", "demo.org"}
)

func randomEmail() string {
	return emailNames[mathrand.IntN(len(emailNames))] +
		strconv.Itoa(mathrand.IntN(1000)) + "@" +
		emailDomains[mathrand.IntN(len(emailDomains))]
}
