package athena

import (
	"fmt"
	"strings"
)

// destructiveFragments are rejected before submission. This is a coarse
// guard against obviously destructive statements, not an authorization
// system.
var destructiveFragments = []string{
	"DROP DATABASE",
	"DROP SCHEMA",
	"CREATE USER",
	"GRANT",
}

// Guard rejects queries containing destructive statement fragments.
func Guard(query string) error {
	upper := strings.ToUpper(strings.TrimSpace(query))
	for _, fragment := range destructiveFragments {
		if strings.Contains(upper, fragment) {
			return fmt.Errorf("dangerous operation detected: %s", fragment)
		}
	}
	return nil
}
