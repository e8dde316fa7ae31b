package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ByLCY/furigana/config"
	"github.com/ByLCY/furigana/dsl"
	"github.com/ByLCY/furigana/layout"
	"github.com/ByLCY/furigana/renderer"
	canvasrenderer "github.com/ByLCY/furigana/renderer/canvas"
	"github.com/ByLCY/furigana/renderer/trace"
	"github.com/ByLCY/furigana/state"
)

// initializeAppContext 在解析命令行之后、执行子命令之前加载配置与日志。
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		env.Cfg.Logging.ConsoleLogger.Level = "debug"
	}
	if env.Log, err = env.Cfg.Logging.Prepare(); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("runtime", runtime.Version()))
	if len(configFile) == 0 {
		env.Log.Debug("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}
	env.RestoreStdLog()
	return nil
}

// 子命令返回普通错误，由 exitErrHandler 记录，main 负责退出码。
var errWasHandled bool

func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := state.EnvFromContext(ctx)
	if env.Log != nil && env.Cfg != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = env.Cfg.Logging.ConsoleLogger.Level != "none"
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

func main() {
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	formats := "pdf, svg, trace"
	app := &cli.Command{
		Name:            config.AppName,
		Usage:           "typesets documents with nested ruby annotations",
		Version:         runtime.Version(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "enable debug logging on the console"},
		},
		Commands: []*cli.Command{
			{
				Name:         "render",
				Usage:        "Renders a markup file",
				OnUsageError: usageErrorHandler,
				Action:       renderDocument,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "to", Usage: "output `TYPE` (" + formats + "), defaults to configuration"},
					&cli.StringFlag{Name: "data", Usage: "JSON `DATA` bound to ${...} placeholders, @FILE reads it from a file"},
					&cli.StringFlag{Name: "layout-json", Usage: "also write the layout result to `FILE`"},
				},
				ArgsUsage: "SOURCE [DESTINATION]",
			},
			{
				Name:         "layout",
				Usage:        "Writes the layout result as JSON",
				OnUsageError: usageErrorHandler,
				Action:       dumpLayout,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "to", Usage: "measure with the fonts of output `TYPE` (" + formats + ")"},
					&cli.StringFlag{Name: "data", Usage: "JSON `DATA` bound to ${...} placeholders, @FILE reads it from a file"},
				},
				ArgsUsage: "SOURCE [DESTINATION]",
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
			},
		},
	}

	var err error
	defer func() {
		stop()
		if err != nil {
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

func renderDocument(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("缺少输入文件")
	}
	input := cmd.Args().Get(0)
	format := firstNonEmpty(cmd.String("to"), env.Cfg.Render.Format)
	data, err := loadData(cmd.String("data"))
	if err != nil {
		return err
	}
	backend, err := newBackend(format, filepath.Dir(input), env)
	if err != nil {
		return err
	}

	output := cmd.Args().Get(1)
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + outputExt(format)
	}
	j := job{
		input:       input,
		output:      output,
		layoutJSON:  cmd.String("layout-json"),
		data:        data,
		backend:     backend,
		defaultFont: env.Cfg.Render.DefaultFont,
		rawUnits:    env.Cfg.Render.DebugRawUnits,
		log:         env.Log,
	}
	if err := j.run(); err != nil {
		return err
	}
	env.Log.Info("Document rendered", zap.String("format", format), zap.String("file", output))
	return nil
}

func dumpLayout(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("缺少输入文件")
	}
	input := cmd.Args().Get(0)
	data, err := loadData(cmd.String("data"))
	if err != nil {
		return err
	}
	backend, err := newBackend(firstNonEmpty(cmd.String("to"), env.Cfg.Render.Format), filepath.Dir(input), env)
	if err != nil {
		return err
	}
	j := job{input: input, data: data, backend: backend, defaultFont: env.Cfg.Render.DefaultFont, rawUnits: env.Cfg.Render.DebugRawUnits, log: env.Log}
	result, err := j.build()
	if err != nil {
		return err
	}

	out := os.Stdout
	if fname := cmd.Args().Get(1); fname != "" {
		if out, err = os.Create(fname); err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer func() { err = multierr.Append(err, out.Close()) }()
	}
	return layout.EncodeDebugJSON(out, result)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)

	var (
		data []byte
		kind string
	)

	out := os.Stdout
	if len(fname) > 0 {
		out, err = os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer func() { err = multierr.Append(err, out.Close()) }()
	}

	if cmd.Bool("default") {
		kind = "default"
		data, err = config.Prepare()
	} else {
		kind = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	if len(fname) == 0 {
		fname = "STDOUT"
	}
	env.Log.Info("Outputing configuration", zap.String("state", kind), zap.String("file", fname))

	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}

// job 串联解析、布局与渲染。
type job struct {
	input, output string
	layoutJSON    string
	data          any
	backend       renderer.Backend
	defaultFont   string
	rawUnits      bool
	log           *zap.Logger
}

func (j job) build() (*layout.Result, error) {
	if j.backend == nil {
		return nil, fmt.Errorf("renderer 不能为空")
	}
	file, err := os.Open(j.input)
	if err != nil {
		return nil, fmt.Errorf("无法打开 DSL 文件 %s: %w", j.input, err)
	}
	defer file.Close()

	doc, err := dsl.Parse(j.input, file)
	if err != nil {
		return nil, fmt.Errorf("解析 DSL 失败: %w", err)
	}

	result, err := layout.Build(doc, j.data, layout.BuildOptions{
		Backend:     j.backend,
		Logger:      j.log.Named("layout"),
		DefaultFont: j.defaultFont,
		Debug:       layout.DebugOptions{RawUnits: j.rawUnits},
	})
	if err != nil {
		return nil, fmt.Errorf("布局计算失败: %w", err)
	}
	return result, nil
}

func (j job) run() error {
	result, err := j.build()
	if err != nil {
		return err
	}

	if j.layoutJSON != "" {
		if err := writeDebug(result, j.layoutJSON); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(j.output), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	out, err := j.backend.Render(result)
	if err != nil {
		return fmt.Errorf("渲染失败: %w", err)
	}
	if err := os.WriteFile(j.output, out, 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	return nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

func newBackend(format, baseDir string, env *state.LocalEnv) (renderer.Backend, error) {
	engine := env.Cfg.Engine.Options()
	engine.Logger = env.Log.Named("ruby")
	switch format {
	case "pdf", "svg":
		return canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
			BaseDir: baseDir,
			Format:  canvasrenderer.Format(format),
			Logger:  env.Log.Named("canvas"),
			Engine:  engine,
		}), nil
	case "trace":
		return trace.New(engine), nil
	}
	return nil, fmt.Errorf("不支持的输出格式：%s（可选 pdf、svg、trace）", format)
}

func outputExt(format string) string {
	if format == "trace" {
		return ".json"
	}
	return "." + format
}

// loadData 解析绑定数据，"@path" 表示从文件读取。
func loadData(arg string) (any, error) {
	if arg == "" {
		return nil, nil
	}
	raw := []byte(arg)
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		var err error
		if raw, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("读取 data 文件失败: %w", err)
		}
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("解析 data JSON 失败: %w", err)
	}
	return data, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
