// Package binding 负责把 JSON 数据绑定到文本中的 ${...} 占位符。
package binding

import (
	"fmt"
	"strconv"
	"strings"
)

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 写成 ${path|默认值} 时，路径不存在则使用默认值；否则保留原占位符。
// $${ 输出字面量 ${。
func Interpolate(text string, data any) string {
	if !strings.Contains(text, "${") {
		return text
	}
	var sb strings.Builder
	sb.Grow(len(text))
	for rest := text; ; {
		i := strings.Index(rest, "${")
		if i < 0 {
			sb.WriteString(rest)
			break
		}
		if i > 0 && rest[i-1] == '$' {
			sb.WriteString(rest[:i-1])
			sb.WriteString("${")
			rest = rest[i+2:]
			continue
		}
		end := strings.IndexByte(rest[i+2:], '}')
		if end < 0 {
			sb.WriteString(rest)
			break
		}
		sb.WriteString(rest[:i])
		sb.WriteString(resolve(rest[i+2:i+2+end], data, rest[i:i+3+end]))
		rest = rest[i+3+end:]
	}
	return sb.String()
}

// resolve 计算一个占位符的结果，placeholder 为原文。
func resolve(expr string, data any, placeholder string) string {
	path, fallback, hasFallback := strings.Cut(expr, "|")
	if path = strings.TrimSpace(path); path != "" && data != nil {
		if val, ok := Lookup(data, path); ok && val != nil {
			return format(val)
		}
	}
	if hasFallback {
		return fallback
	}
	return placeholder
}

// Lookup 按 a.b[0].c 形式的路径在 JSON 解码后的数据中取值。
func Lookup(data any, path string) (any, bool) {
	current := data
	for _, segment := range strings.Split(path, ".") {
		name, indexes, ok := splitSegment(segment)
		if !ok {
			return nil, false
		}
		if name != "" {
			if current, ok = field(current, name); !ok {
				return nil, false
			}
		}
		for _, idx := range indexes {
			if current, ok = element(current, idx); !ok {
				return nil, false
			}
		}
	}
	return current, true
}

// format 避免 JSON 数字以科学计数法输出。
func format(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// splitSegment 拆分 name[0][1] 形式的路径段。
func splitSegment(segment string) (string, []int, bool) {
	name, rest, found := strings.Cut(segment, "[")
	if !found {
		return name, nil, true
	}
	var indexes []int
	for rest = "[" + rest; rest != ""; {
		if rest[0] != '[' {
			return "", nil, false
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return "", nil, false
		}
		idx, err := strconv.Atoi(rest[1:end])
		if err != nil {
			return "", nil, false
		}
		indexes = append(indexes, idx)
		rest = rest[end+1:]
	}
	return name, indexes, true
}

func field(current any, key string) (any, bool) {
	switch c := current.(type) {
	case map[string]any:
		val, ok := c[key]
		return val, ok
	case map[string]string:
		val, ok := c[key]
		return val, ok
	}
	return nil, false
}

func element(current any, idx int) (any, bool) {
	switch c := current.(type) {
	case []any:
		if idx >= 0 && idx < len(c) {
			return c[idx], true
		}
	case []string:
		if idx >= 0 && idx < len(c) {
			return c[idx], true
		}
	}
	return nil, false
}
