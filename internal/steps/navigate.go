package steps

import (
	"context"
	"fmt"

	"github.com/flowforge/automata/internal/domain"
)

func execNavigate(ctx context.Context, sess *SessionContext, step domain.Step) error {
	if step.URL == "" {
		return fmt.Errorf("navigate: url is required")
	}
	return sess.Page.Navigate(ctx, step.URL)
}
