package markdown

import (
	"fmt"
	"math"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
)

// listSeparator joins sequence values.
const listSeparator = ", "

// NormaliseMetadata flattens frontmatter into plain string values and
// injects the derived file keys. Nil values are dropped.
// Derived keys always replace frontmatter keys of the same name.
func NormaliseMetadata(frontmatter map[string]any, path string) map[string]string {
	out := make(map[string]string, len(frontmatter)+3)

	for key, value := range frontmatter {
		if s, ok := stringify(value); ok {
			out[key] = s
		}
	}

	name := filepath.Base(path)
	out[domain.MetadataFilePath] = path
	out[domain.MetadataFileName] = name
	out[domain.MetadataFileStem] = strings.TrimSuffix(name, filepath.Ext(name))

	return out
}

// stringify converts a single value. The bool result is false when the
// value should be dropped.
func stringify(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case bool:
		if v {
			return "True", true
		}
		return "False", true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float64:
		return formatFloat(v), true
	case float32:
		return formatFloat(float64(v)), true
	case time.Time:
		return formatTime(v), true
	case []any:
		return joinList(v), true
	case []string:
		return strings.Join(v, listSeparator), true
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return joinList(items), true
	}
	return fmt.Sprint(value), true
}

func joinList(items []any) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := stringify(item); ok {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, listSeparator)
}

// formatFloat uses the shortest representation and keeps integral floats
// recognisable as floats ("2.0" rather than "2").
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if math.IsInf(f, 0) || math.IsNaN(f) || strings.ContainsAny(s, ".") {
		return s
	}
	return s + ".0"
}

// formatTime renders a midnight UTC timestamp as a date.
func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 && t.Location() == time.UTC {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}
