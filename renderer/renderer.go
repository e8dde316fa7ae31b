// Package renderer 定义排版结果的输出后端。
package renderer

import (
	"github.com/ByLCY/furigana/layout"
)

// Renderer 将布局结果输出为最终文件，例如 PDF、SVG 或绘制指令的 JSON。
// Render 返回生成的二进制数据以及可能的错误。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}

// Backend 既负责度量又负责绘制，布局必须使用同一个 Backend 的引擎。
type Backend interface {
	Renderer
	layout.Backend
}
