package repository

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// List-valued columns (aliases, tags, template id selections) are stored as
// JSONB. encodeList/decodeList keep the round trip in one place.

func encodeList[T any](list []T) ([]byte, error) {
	if list == nil {
		return []byte("[]"), nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("failed to encode list column: %w", err)
	}
	return data, nil
}

func decodeList[T any](data []byte, dst *[]T) error {
	if len(data) == 0 {
		*dst = nil
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode list column: %w", err)
	}
	return nil
}

// inPlaceholders builds "$start, $start+1, ..." for IN clauses
func inPlaceholders(n, start int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", start+i)
	}
	return b.String()
}

func uuidArgs(ids []uuid.UUID) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
