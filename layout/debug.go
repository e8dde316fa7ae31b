package layout

import (
	"encoding/json"
	"io"
	"os"

	"go.uber.org/multierr"
)

// EncodeDebugJSON 将布局结果以缩进 JSON 写入 w，ruby 排版细节（段、间距、嵌套）一并输出。
func EncodeDebugJSON(w io.Writer, res *Result) error {
	if res == nil {
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(res)
}

// WriteDebugJSON 将布局结果输出到文件，便于调试或可视化。
func WriteDebugJSON(res *Result, path string) (err error) {
	if res == nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	return EncodeDebugJSON(f, res)
}
