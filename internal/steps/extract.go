package steps

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/flowforge/automata/internal/domain"
)

func execExtract(ctx context.Context, sess *SessionContext, step domain.Step) (map[string]any, error) {
	if step.Selector == "" {
		return nil, fmt.Errorf("extract: selector is required")
	}

	el, err := sess.Page.FindElement(ctx, step.Selector)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	if len(step.Schema) == 0 {
		text, err := el.InnerText(ctx)
		if err != nil {
			return nil, fmt.Errorf("extract: %w", err)
		}
		return map[string]any{"text": text}, nil
	}

	data := make(map[string]any, len(step.Schema))
	for _, field := range step.Schema {
		value, err := extractField(ctx, el, field)
		if err != nil {
			return nil, fmt.Errorf("extract field %s: %w", field.Name, err)
		}
		data[field.Name] = value
	}
	return data, nil
}

// extractField reads field.Name as an attribute on el, falling back to
// el's inner text if the attribute is absent, then coerces the raw
// string to field.Type.
func extractField(ctx context.Context, el Element, field domain.SchemaField) (any, error) {
	text, err := readAttrOrText(ctx, el, field.Name)
	if err != nil {
		return nil, err
	}

	switch field.Type {
	case "number":
		n, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", text)
		}
		return n, nil
	case "bool":
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return nil, fmt.Errorf("not a bool: %q", text)
		}
		return b, nil
	case "string", "":
		return text, nil
	default:
		return text, nil
	}
}

func readAttrOrText(ctx context.Context, el Element, attrName string) (string, error) {
	val, present, err := el.Attribute(ctx, attrName)
	if err != nil {
		return "", err
	}
	if present {
		return val, nil
	}
	return el.InnerText(ctx)
}
