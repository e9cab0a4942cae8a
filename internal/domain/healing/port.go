package healing

import "context"

// Trigger port executes one healing action via its automation channel.
type Trigger interface {
	Execute(ctx context.Context, a Action) (Execution, error)
}
