package binding

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		t.Fatalf("解析测试数据失败: %v", err)
	}
	return data
}

func TestInterpolate(t *testing.T) {
	data := decode(t, `{"user":{"name":"太郎","age":12},"words":[{"kanji":"漢字","kana":"かんじ"}],"n":1000000}`)
	cases := []struct {
		in, want string
	}{
		{"こんにちは、${user.name}", "こんにちは、太郎"},
		{"${words[0].kanji}/${words[0].kana}", "漢字/かんじ"},
		{"${user.age}歳", "12歳"},
		{"${n}", "1000000"},
		{"${user.missing}", "${user.missing}"},
		{"${user.missing|名無し}", "名無し"},
		{"${words[3].kanji|?}", "?"},
		{"plain", "plain"},
	}
	for _, c := range cases {
		if got := Interpolate(c.in, data); got != c.want {
			t.Fatalf("Interpolate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestInterpolateWithoutData(t *testing.T) {
	if got := Interpolate("${a}", nil); got != "${a}" {
		t.Fatalf("占位符应保留，实际 %q", got)
	}
	if got := Interpolate("${a|x}", nil); got != "x" {
		t.Fatalf("应使用默认值，实际 %q", got)
	}
}

func TestInterpolateEdgeCases(t *testing.T) {
	data := map[string]any{"a": "x", "list": []string{"p", "q"}}
	cases := []struct {
		in, want string
	}{
		{"$${a}", "${a}"},
		{"${a}${a}", "xx"},
		{"${}", "${}"},
		{"${a", "${a"},
		{"[${list[1]}]", "[q]"},
		{"${list[x]|-}", "-"},
		{"${list[0]]|-}", "-"},
	}
	for _, c := range cases {
		if got := Interpolate(c.in, data); got != c.want {
			t.Fatalf("Interpolate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestLookup(t *testing.T) {
	data := decode(t, `{"grid":[[1,2],[3,4]]}`)
	val, ok := Lookup(data, "grid[1][0]")
	if !ok || val != float64(3) {
		t.Fatalf("Lookup 结果错误: %v %v", val, ok)
	}
	if _, ok := Lookup(data, "grid[2]"); ok {
		t.Fatalf("越界下标应返回 false")
	}
}
