package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/zurustar/midicurve/pkg/bake"
	"github.com/zurustar/midicurve/pkg/cli"
	"github.com/zurustar/midicurve/pkg/eventlog"
	"github.com/zurustar/midicurve/pkg/export"
	"github.com/zurustar/midicurve/pkg/fileutil"
	"github.com/zurustar/midicurve/pkg/logger"
	"github.com/zurustar/midicurve/pkg/nameindex"
	"github.com/zurustar/midicurve/pkg/picker"
	"github.com/zurustar/midicurve/pkg/report"
)

// レポートに一覧表示するカーブの最大数
const reportCurves = 12

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config *cli.Config
	log    *slog.Logger
	stdout io.Writer // カーブデータの出力先（--output 未指定時）
	stderr io.Writer // レポートの出力先

	// pick は --pick 時のファイル選択。テストで差し替える
	pick func(dir string) (string, error)
}

// New Applicationを作成
func New(stdout, stderr io.Writer) *Application {
	return &Application{
		stdout: stdout,
		stderr: stderr,
		pick:   picker.Run,
	}
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	// 2. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Debug("Application started", "channel", app.config.Channel, "fps", app.config.FPS)

	// 3. 入力ファイルの決定
	input, err := app.selectInput()
	if err != nil {
		return fmt.Errorf("failed to select input: %w", err)
	}

	// 4. ベイク
	outcome, err := app.bake(input)
	if err != nil {
		return err
	}
	if !outcome.OK() {
		app.printReport(outcome, nil)
		return fmt.Errorf("%w: %s", bake.ErrNotBaked, outcome.Reason)
	}

	// 5. カーブの収集とキーとの対応付け（キーファイル指定時のみ）
	collector := export.NewCollector(outcome.Name, outcome.Result.ChannelName(), app.config.FPS)
	collector.Doc.StatusLines = outcome.StatusLines[:]
	if err := bake.Apply(outcome, collector); err != nil {
		return fmt.Errorf("failed to collect curves: %w", err)
	}

	var link *nameindex.Outcome
	if app.config.KeysPath != "" {
		l, err := app.link(outcome, collector)
		if err != nil {
			return fmt.Errorf("failed to link keys: %w", err)
		}
		link = &l
		collector.Doc.Warnings = l.Result.Warnings
		if !l.OK() {
			collector.Doc.Warnings = append(collector.Doc.Warnings, l.Reason)
		}
	}

	// 6. 書き出し
	if err := app.write(collector); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	// 7. レポート
	app.printReport(outcome, link)

	app.log.Debug("Application terminated normally")
	return nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLogger(app.config.LogLevel); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// selectInput 入力ファイルを決定（--pick 指定時は対話的に選択）
func (app *Application) selectInput() (string, error) {
	if app.config.InputPath != "" || !app.config.Pick {
		return app.config.InputPath, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	path, err := app.pick(dir)
	if err != nil {
		return "", err
	}
	app.log.Info("Input selected", "path", path)
	return path, nil
}

// bake 入力ファイルをベイク
func (app *Application) bake(path string) (bake.Outcome, error) {
	opts := bake.Options{
		Parse: eventlog.Options{
			Channel:         app.config.Channel,
			FPS:             app.config.FPS,
			Offset:          app.config.Offset,
			UseVelocity:     app.config.UseVelocity,
			Easing:          app.config.Easing,
			ZeroVelocityOff: app.config.ZeroVelocityOff,
		},
		Encoding:    app.config.Encoding,
		FollowTempo: app.config.FollowTempo,
		Collapse:    app.config.Collapse,
	}
	baker, err := bake.New(opts, app.log)
	if err != nil {
		return bake.Outcome{}, fmt.Errorf("failed to create baker: %w", err)
	}
	outcome, err := baker.Bake(path)
	if err != nil {
		app.log.Error("Bake failed", "path", path, "error", err)
		return bake.Outcome{}, err
	}
	return outcome, nil
}

// link キーファイルを読み込みインデックスを作成
func (app *Application) link(outcome bake.Outcome, sink bake.IndexSink) (nameindex.Outcome, error) {
	keys, err := LoadKeys(app.config.KeysPath, app.config.Encoding)
	if err != nil {
		return nameindex.Outcome{}, err
	}
	app.log.Info("Keys loaded", "path", app.config.KeysPath, "count", len(keys))

	group := &nameindex.Group{Name: app.config.KeysPath, Members: keys}
	opts := nameindex.Options{Mode: app.config.MatchMode, Strict: app.config.Strict}
	out, err := bake.Link(outcome, group, sink, opts)
	if err != nil {
		return nameindex.Outcome{}, err
	}
	if !out.OK() {
		app.log.Warn("Keys not linked", "reason", out.Reason)
	}
	for _, w := range out.Result.Warnings {
		app.log.Warn(w)
	}
	return out, nil
}

// write 出力ファイル（または標準出力）へ書き出す
func (app *Application) write(c *export.Collector) error {
	if app.config.OutputPath == "" || app.config.OutputPath == "-" {
		return c.Write(app.stdout, app.config.Format)
	}
	if err := c.WriteFile(app.config.OutputPath, app.config.Format); err != nil {
		return err
	}
	app.log.Info("Output written", "path", app.config.OutputPath, "format", app.config.Format, "curves", len(c.Doc.Curves))
	return nil
}

func (app *Application) printReport(outcome bake.Outcome, link *nameindex.Outcome) {
	if app.config.Quiet {
		return
	}
	fmt.Fprintln(app.stderr, report.Render(outcome, link, reportCurves))
}

// LoadKeys キー名リストを読み込む。空行と # で始まる行は無視する
func LoadKeys(path string, enc fileutil.Encoding) ([]string, error) {
	text, err := fileutil.ReadText(path, enc)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keys = append(keys, line)
	}
	return keys, nil
}
