package somiod

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// generateName produces a resource name for requests that omit one:
// prefix, UTC timestamp, short random suffix. Pure function of the clock and
// the random source; collision probability is accepted as negligible.
func generateName(prefix string) string {
	return fmt.Sprintf("%s-%s-%s",
		prefix,
		time.Now().UTC().Format("20060102150405"),
		uuid.NewString()[:8])
}
