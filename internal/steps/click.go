package steps

import (
	"context"
	"fmt"

	"github.com/flowforge/automata/internal/domain"
)

func execClick(ctx context.Context, sess *SessionContext, step domain.Step) error {
	if step.Selector == "" {
		return fmt.Errorf("click: selector is required")
	}
	return sess.Page.Click(ctx, step.Selector)
}
