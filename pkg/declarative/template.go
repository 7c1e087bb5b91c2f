package declarative

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// templateContext is what a template expression renders against: the
// decoded JSON input (as produced by encoding/json — map[string]any,
// []any, string, float64, bool, nil), plus the adapter and context ids.
type templateContext struct {
	input     any
	adapterID string
	contextID string
}

// renderTemplate replaces every `{expr}` in template with its rendered
// value. Supports `{input.field}`, `{adapter_id}`, `{context_id}`, and
// `{accessor | filter | filter:arg}` pipelines.
func renderTemplate(template string, ctx templateContext) (string, error) {
	var out strings.Builder
	runes := []rune(template)
	i := 0
	for i < len(runes) {
		if runes[i] != '{' {
			out.WriteRune(runes[i])
			i++
			continue
		}
		j := i + 1
		for j < len(runes) && runes[j] != '}' {
			j++
		}
		if j >= len(runes) {
			return "", fmt.Errorf("declarative: unclosed template expression in: %s", template)
		}
		rendered, err := evalExpression(strings.TrimSpace(string(runes[i+1:j])), ctx)
		if err != nil {
			return "", err
		}
		out.WriteString(rendered)
		i = j + 1
	}
	return out.String(), nil
}

func evalExpression(expr string, ctx templateContext) (string, error) {
	accessor, filters, hasFilters := strings.Cut(expr, "|")
	accessor = strings.TrimSpace(accessor)

	raw, err := resolveAccessor(accessor, ctx)
	if err != nil {
		return "", err
	}
	if !hasFilters {
		return valueToString(raw)
	}
	return applyFilters(raw, filters)
}

// resolveAccessor navigates a dotted `input.*` path, or returns the
// adapter_id / context_id context variables.
func resolveAccessor(accessor string, ctx templateContext) (any, error) {
	switch accessor {
	case "adapter_id":
		return ctx.adapterID, nil
	case "context_id":
		return ctx.contextID, nil
	}

	path, ok := strings.CutPrefix(accessor, "input.")
	if !ok {
		return nil, fmt.Errorf("declarative: unknown template accessor: %s", accessor)
	}

	var current any = ctx.input
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("declarative: input field not found: %s", accessor)
		}
		v, ok := m[segment]
		if !ok {
			return nil, fmt.Errorf("declarative: input field not found: %s", accessor)
		}
		current = v
	}
	return current, nil
}

func valueToString(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return formatNumber(v), nil
	case []any:
		items := make([]string, len(v))
		for i, e := range v {
			s, err := valueToString(e)
			if err != nil {
				return "", err
			}
			items[i] = s
		}
		return strings.Join(items, ","), nil
	default:
		return "", fmt.Errorf("declarative: cannot render %T as string in template", value)
	}
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// applyFilters runs value through a `|`-separated filter pipeline, then
// renders the final result to a string.
func applyFilters(value any, filtersStr string) (string, error) {
	current := value
	for _, f := range strings.Split(filtersStr, "|") {
		var err error
		current, err = applySingleFilter(current, strings.TrimSpace(f))
		if err != nil {
			return "", err
		}
	}
	return valueToString(current)
}

func applySingleFilter(value any, filter string) (any, error) {
	name, arg, hasArg := strings.Cut(filter, ":")
	name = strings.TrimSpace(name)
	if hasArg {
		arg = strings.TrimSpace(arg)
	}

	switch name {
	case "lowercase":
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("declarative: lowercase filter requires a string value")
		}
		return strings.ToLower(s), nil

	case "sort":
		arr, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("declarative: sort filter requires an array value")
		}
		items := stringsFrom(arr)
		sort.Strings(items)
		out := make([]any, len(items))
		for i, s := range items {
			out[i] = s
		}
		return out, nil

	case "join":
		sep := ","
		if hasArg {
			sep = arg
		}
		arr, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("declarative: join filter requires an array value")
		}
		return strings.Join(stringsFrom(arr), sep), nil

	case "default":
		def := ""
		if hasArg {
			def = arg
		}
		switch v := value.(type) {
		case nil:
			return def, nil
		case string:
			if v == "" {
				return def, nil
			}
			return v, nil
		default:
			return v, nil
		}

	default:
		return nil, fmt.Errorf("declarative: unknown template filter: %s", name)
	}
}

func stringsFrom(arr []any) []string {
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
