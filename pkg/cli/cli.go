package cli

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/zurustar/midicurve/pkg/export"
	"github.com/zurustar/midicurve/pkg/fileutil"
	"github.com/zurustar/midicurve/pkg/logger"
	"github.com/zurustar/midicurve/pkg/nameindex"
)

// オフセットの許容範囲（フレーム）
const (
	MinOffset = -1000
	MaxOffset = 10000
)

// DefaultChannel は最初の演奏トラック
const DefaultChannel = "2"

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	InputPath       string            // イベントログ（midicsv形式）またはSMFのパス
	Channel         string            // 対象トラック番号
	FPS             float64           // フレームレート
	Offset          int               // フレームオフセット
	UseVelocity     bool              // ベロシティをゲート値に使う
	Easing          float64           // イージング（保持のみ）
	ZeroVelocityOff bool              // ベロシティ0のNote_on_cをノートオフとして扱う
	FollowTempo     bool              // テンポチェンジに追従してフレームを再計算
	Collapse        bool              // 同一フレームのキーを最後の値にまとめる
	KeysPath        string            // キー名リスト（1行1名）
	MatchMode       nameindex.Mode    // 照合モード
	Strict          bool              // キー不足をエラーにする
	OutputPath      string            // 出力先（空または"-"で標準出力）
	Format          export.Format     // 出力形式
	Encoding        fileutil.Encoding // 入力テキストの文字コード
	Pick            bool              // 入力ファイルを対話的に選択
	Quiet           bool              // レポートを表示しない
	LogLevel        string            // ログレベル（debug, info, warn, error）
	ShowHelp        bool              // ヘルプ表示フラグ
}

// 値を取らないフラグ。reorderArgs が次の引数を値として扱わないようにする
var boolFlags = map[string]bool{
	"h": true, "help": true,
	"v": true, "velocity": true,
	"zero-velocity-off": true,
	"follow-tempo":      true,
	"collapse":          true,
	"strict":            true,
	"pick":              true,
	"q": true, "quiet": true,
}

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("midicurve", flag.ContinueOnError)

	config := &Config{}

	var format, encoding, mode string
	fs.StringVar(&config.Channel, "channel", "", "対象トラック番号")
	fs.StringVar(&config.Channel, "c", "", "対象トラック番号（短縮形）")
	fs.Float64Var(&config.FPS, "fps", 0, "フレームレート")
	fs.Float64Var(&config.FPS, "f", 0, "フレームレート（短縮形）")
	fs.IntVar(&config.Offset, "offset", 0, "フレームオフセット")
	fs.IntVar(&config.Offset, "o", 0, "フレームオフセット（短縮形）")
	fs.BoolVar(&config.UseVelocity, "velocity", false, "ベロシティをゲート値に使う")
	fs.BoolVar(&config.UseVelocity, "v", false, "ベロシティをゲート値に使う（短縮形）")
	fs.Float64Var(&config.Easing, "easing", 0.2, "イージング")
	fs.BoolVar(&config.ZeroVelocityOff, "zero-velocity-off", false, "ベロシティ0のノートオンをノートオフとして扱う")
	fs.BoolVar(&config.FollowTempo, "follow-tempo", false, "テンポチェンジに追従する")
	fs.BoolVar(&config.Collapse, "collapse", false, "同一フレームのキーをまとめる")
	fs.StringVar(&config.KeysPath, "keys", "", "キー名リストのファイル")
	fs.StringVar(&config.KeysPath, "k", "", "キー名リストのファイル（短縮形）")
	fs.StringVar(&mode, "match", "first", "照合モード（first, legacy）")
	fs.BoolVar(&config.Strict, "strict", false, "キー不足をエラーにする")
	fs.StringVar(&config.OutputPath, "output", "", "出力ファイル")
	fs.StringVar(&config.OutputPath, "O", "", "出力ファイル（短縮形）")
	fs.StringVar(&format, "format", "json", "出力形式（json, csv）")
	fs.StringVar(&encoding, "encoding", "auto", "入力の文字コード（auto, utf-8, shift-jis）")
	fs.BoolVar(&config.Pick, "pick", false, "入力ファイルを対話的に選択")
	fs.BoolVar(&config.Quiet, "quiet", false, "レポートを表示しない")
	fs.BoolVar(&config.Quiet, "q", false, "レポートを表示しない（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "info", "ログレベル（短縮形）")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 明示的に指定されたフラグ（0 や空文字でも指定ありとして扱う）
	given := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { given[f.Name] = true })

	// 環境変数からの設定（コマンドラインフラグが優先）
	if !given["channel"] && !given["c"] {
		config.Channel = os.Getenv("MIDICURVE_CHANNEL")
	}
	if config.Channel == "" {
		config.Channel = DefaultChannel
	}

	if !given["fps"] && !given["f"] {
		if fpsEnv := os.Getenv("MIDICURVE_FPS"); fpsEnv != "" {
			fps, err := strconv.ParseFloat(fpsEnv, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid MIDICURVE_FPS: %s", fpsEnv)
			}
			config.FPS = fps
		} else {
			config.FPS = 24
		}
	}

	if !given["log-level"] && !given["l"] {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = logLevelEnv
		}
	}
	config.LogLevel = strings.ToLower(config.LogLevel)

	// 値の検証
	if config.FPS <= 0 || math.IsNaN(config.FPS) || math.IsInf(config.FPS, 0) {
		return nil, fmt.Errorf("fps must be positive, got %v", config.FPS)
	}
	if config.Offset < MinOffset || config.Offset > MaxOffset {
		return nil, fmt.Errorf("offset must be between %d and %d, got %d", MinOffset, MaxOffset, config.Offset)
	}
	if _, err := logger.ParseLevel(config.LogLevel); err != nil {
		return nil, err
	}

	var err error
	if config.Format, err = export.ParseFormat(format); err != nil {
		return nil, err
	}
	if config.Encoding, err = fileutil.ParseEncoding(encoding); err != nil {
		return nil, err
	}
	if config.MatchMode, err = nameindex.ParseMode(mode); err != nil {
		return nil, err
	}

	// 位置引数（入力ファイルのパス）
	if fs.NArg() > 0 {
		config.InputPath = fs.Arg(0)
	}
	if fs.NArg() > 1 {
		return nil, fmt.Errorf("too many arguments: %v", fs.Args())
	}

	return config, nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 1 && arg[0] == '-' {
			flags = append(flags, arg)

			name := strings.TrimLeft(arg, "-")
			if strings.Contains(name, "=") || boolFlags[name] {
				continue
			}
			// 値を取るフラグは次の引数も追加（-o -5 のような負の値も含む）
			if i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、"--" の後に位置引数を配置
	if len(positional) == 0 {
		return flags
	}
	flags = append(flags, "--")
	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `midicurve - MIDI event log to keyframe curves

Usage:
  midicurve [options] [input]

Arguments:
  input         midicsv形式のイベントログ（.csv）またはスタンダードMIDIファイル（.mid）
                省略時は --pick で対話的に選択

Options:
  -c, --channel <track>       対象トラック番号（デフォルト: 2）
  -f, --fps <rate>            フレームレート（デフォルト: 24）
  -o, --offset <frames>       フレームオフセット %d〜%d（デフォルト: 0）
  -v, --velocity              ベロシティ/127をゲート値に使う
  --easing <value>            イージング（デフォルト: 0.2）
  --zero-velocity-off         ベロシティ0のノートオンをノートオフとして扱う
  --follow-tempo              テンポチェンジに追従してフレームを再計算
  --collapse                  同一フレームのキーを最後の値にまとめる
  -k, --keys <file>           キー名リスト（1行1名）。指定時にインデックスを作成
  --match <mode>              照合モード: first, legacy（デフォルト: first）
  --strict                    キーがコントロールより少ない場合にエラー
  -O, --output <file>         出力ファイル（デフォルト: 標準出力）
  --format <format>           出力形式: json, csv（デフォルト: json）
  --encoding <name>           入力の文字コード: auto, utf-8, shift-jis（デフォルト: auto）
  --pick                      カレントディレクトリから入力ファイルを選択
  -q, --quiet                 レポートを表示しない
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  -h, --help                  このヘルプを表示

Environment Variables:
  MIDICURVE_CHANNEL=<track>   対象トラック番号
  MIDICURVE_FPS=<rate>        フレームレート
  LOG_LEVEL=<level>           ログレベル

Examples:
  midicurve song.csv                      トラック2を24fpsで変換
  midicurve -c 3 -f 30 -v song.csv        トラック3を30fps、ベロシティ付きで変換
  midicurve song.mid --follow-tempo       SMFを直接読み込みテンポチェンジに追従
  midicurve song.csv -k keys.txt -O out.json  キーとのインデックスも出力
`, MinOffset, MaxOffset)
}
