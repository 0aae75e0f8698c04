// Package stage defines the contract pipeline stages implement so the
// workflow runner can drive queue items through them uniformly.
package stage

import (
	"context"

	"loom/internal/queue"
)

// Handler describes the contract the workflow runner needs from each stage.
// Prepare validates inputs and stamps any derived fields on the item before
// work starts; Execute performs the stage's work and advances the item's
// artifacts; HealthCheck reports whether the stage's external dependencies
// are reachable.
type Handler interface {
	Prepare(context.Context, *queue.Item) error
	Execute(context.Context, *queue.Item) error
	HealthCheck(context.Context) Health
}
