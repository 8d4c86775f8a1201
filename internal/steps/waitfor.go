package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/flowforge/automata/internal/domain"
)

func execWaitFor(ctx context.Context, sess *SessionContext, step domain.Step, timeout time.Duration) error {
	if step.Selector == "" {
		return fmt.Errorf("waitFor: selector is required")
	}
	return sess.Page.WaitForSelector(ctx, step.Selector, timeout)
}
