package httpapi

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"

	"github.com/crmarques/confsync/resource"
)

// ExtractList applies a jq expression to a decoded listing response and
// returns the selected objects, normalized. The expression must select
// an array of objects (or nothing, for empty listings).
func ExtractList(payload any, expression string) ([]map[string]any, error) {
	if expression == "" || expression == "." {
		return normalizeObjectList(payload)
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, internalError(fmt.Sprintf("invalid list expression %q", expression), err)
	}

	iter := query.Run(jqInput(payload))
	var results []map[string]any
	for {
		value, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := value.(error); isErr {
			return nil, validationError(fmt.Sprintf("list expression %q failed", expression), err)
		}
		if value == nil {
			continue
		}
		items, err := normalizeObjectList(value)
		if err != nil {
			return nil, err
		}
		results = append(results, items...)
	}
	return results, nil
}

// jqInput rewrites json.Number values into the scalar types gojq
// accepts as query input.
func jqInput(value any) any {
	switch typed := value.(type) {
	case json.Number:
		if asInt, err := typed.Int64(); err == nil {
			return int(asInt)
		}
		if asFloat, err := typed.Float64(); err == nil {
			return asFloat
		}
		return typed.String()
	case int64:
		return int(typed)
	case []any:
		converted := make([]any, len(typed))
		for idx, item := range typed {
			converted[idx] = jqInput(item)
		}
		return converted
	case map[string]any:
		converted := make(map[string]any, len(typed))
		for key, item := range typed {
			converted[key] = jqInput(item)
		}
		return converted
	}
	return value
}

func normalizeObjectList(value any) ([]map[string]any, error) {
	normalized, err := resource.Normalize(value)
	if err != nil {
		return nil, validationError("listing response cannot be normalized", err)
	}

	switch typed := normalized.(type) {
	case nil:
		return nil, nil
	case []any:
		items := make([]map[string]any, 0, len(typed))
		for _, element := range typed {
			object, ok := element.(map[string]any)
			if !ok {
				return nil, validationError(fmt.Sprintf("listing element is %T, expected an object", element), nil)
			}
			items = append(items, object)
		}
		return items, nil
	case map[string]any:
		return []map[string]any{typed}, nil
	}
	return nil, validationError(fmt.Sprintf("listing response is %T, expected an array of objects", normalized), nil)
}
