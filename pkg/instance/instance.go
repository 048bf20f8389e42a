package instance

import "github.com/snackdash/snackdash-core/pkg/env"

// GetID returns the identifier of this cartd instance. It distinguishes
// replicas in logs when several instances share a database.
func GetID() string {
	return env.Get("SNACKDASH_INSTANCE_ID", "cartd-0")
}
