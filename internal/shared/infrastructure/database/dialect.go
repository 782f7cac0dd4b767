package database

import (
	"strconv"
	"strings"
)

// Rebind rewrites PostgreSQL-style positional placeholders ($1, $2, ...) into
// the form the driver expects. Repositories write queries once with $N and
// call Rebind before executing them.
func Rebind(driver Driver, query string) string {
	if driver != DriverSQLite {
		return query
	}

	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c != '$' {
			b.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(query) && query[j] >= '0' && query[j] <= '9' {
			j++
		}
		if j == i+1 {
			b.WriteByte(c)
			continue
		}
		// SQLite supports ?NNN, which keeps repeated references to the same
		// argument working.
		n, _ := strconv.Atoi(query[i+1 : j])
		b.WriteString("?" + strconv.Itoa(n))
		i = j - 1
	}
	return b.String()
}
