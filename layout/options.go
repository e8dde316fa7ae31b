package layout

import (
	"go.uber.org/zap"

	"github.com/ByLCY/furigana/ruby"
)

// BuildOptions 配置布局阶段所需的依赖，例如度量后端与日志。
type BuildOptions struct {
	// Backend 提供 ruby 引擎，并在排版前接收文档声明的字体。
	Backend Backend
	// Engine 优先于 Backend.Engine()，必须与渲染阶段使用同一个度量后端，否则测得的宽度与绘制不一致。
	Engine *ruby.Engine
	Logger *zap.Logger
	// DefaultFont 在文档未声明 Body 字体时使用，例如 "builtin:goregular"。
	DefaultFont string
	Debug       DebugOptions
}

// DebugOptions 控制调试相关输出。
type DebugOptions struct {
	RawUnits bool // 在调试 JSON 中输出 debug.rawUnits 影子字段
}

// Backend 是同时提供度量与渲染的后端，例如 canvas 渲染器。
type Backend interface {
	Engine() *ruby.Engine
	RegisterFonts(fonts map[string]FontResource) error
}
