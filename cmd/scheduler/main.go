// =============================================================================
// main.go - 定期実行スケジューラーのエントリーポイント
// =============================================================================
//
// このプログラムは、インテリジェンスパイプラインを一定間隔で子プロセス
// として実行するスケジューラーです。パイプライン本体とプロセスを分ける
// ことで、1回の実行が失敗してもスケジューラー自体は動き続けます。
//
// 【CLIフラグ一覧】
//   -interval    実行間隔（時間単位、デフォルト: 24、最小: 1）
//   -once        1回だけ実行して終了
//   -verbose     成功時も子プロセスの出力をログに含める
//   -bin         実行するパイプラインバイナリのパス
//   -out         パイプラインに渡す成果物ルート（ログ出力先にも使用）
//
// =============================================================================
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/helloannapo/infmarketmonitoring/internal/intel"
)

// SchedulerConfig はスケジューラーの全設定を保持する
type SchedulerConfig struct {
	// IntervalHours は実行間隔（時間）
	IntervalHours int

	// Once がtrueの場合、スケジュールせず1回だけ実行する
	Once bool

	// Verbose がtrueの場合、成功時も子プロセスの出力をログに残す
	Verbose bool

	// Bin は実行するパイプラインバイナリのパス
	Bin string

	// OutputRoot は子プロセスに渡す成果物ルート
	OutputRoot string
}

// ParseFlags はCLIフラグを解析してSchedulerConfigを返す
func ParseFlags() *SchedulerConfig {
	cfg := &SchedulerConfig{}
	flag.IntVar(&cfg.IntervalHours, "interval", 24, "interval between runs in hours (minimum: 1)")
	flag.BoolVar(&cfg.Once, "once", false, "run once and exit (do not schedule)")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "log child process output on success too")
	flag.StringVar(&cfg.Bin, "bin", "./intelligence", "path to the intelligence pipeline binary")
	flag.StringVar(&cfg.OutputRoot, "out", ".", "output root passed to the pipeline")
	flag.Parse()
	return cfg
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "WARN: .env file not loaded: %v (using environment variables only)\n", err)
	}

	cfg := ParseFlags()
	if cfg.IntervalHours < 1 {
		fmt.Fprintf(os.Stderr, "ERROR: interval must be at least 1 hour (got %d)\n", cfg.IntervalHours)
		os.Exit(1)
	}

	// --- ログファイルの用意 ---
	logDir := filepath.Join(cfg.OutputRoot, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: creating log directory: %v\n", err)
		os.Exit(1)
	}

	logger := intel.NewLogger(os.Stderr)
	logPath := filepath.Join(logDir, fmt.Sprintf("scheduler_%s.log", time.Now().Format("20060102_150405")))
	logFile, err := os.Create(logPath)
	if err != nil {
		logger.Warnf("could not open log file %s: %v", logPath, err)
	} else {
		defer logFile.Close()
		logger = intel.NewLogger(io.MultiWriter(os.Stderr, logFile))
	}

	runner := &jobRunner{cfg: cfg, logger: logger}

	if cfg.Once {
		logger.Infof("Running intelligence job once...")
		if !runner.Run() {
			os.Exit(1)
		}
		return
	}

	// --- スケジュール設定 ---
	// SkipIfStillRunning: 前回の実行が長引いた場合は重ねずスキップする
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	spec := fmt.Sprintf("@every %dh", cfg.IntervalHours)
	if _, err := c.AddFunc(spec, func() { runner.Run() }); err != nil {
		logger.Errorf("scheduling job: %v", err)
		os.Exit(1)
	}

	logger.Infof("Intelligence job scheduled to run every %d hours", cfg.IntervalHours)
	logger.Infof("Scheduler started. Press Ctrl+C to stop.")
	logger.Infof("Next run in %d hours", cfg.IntervalHours)

	c.Start()

	// Ctrl+C / SIGTERM で停止
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Infof("Scheduler stopped by user")
	<-c.Stop().Done()
}

// jobRunner はパイプラインを子プロセスとして1回実行する
type jobRunner struct {
	cfg    *SchedulerConfig
	logger *intel.Logger
}

// Run はジョブを実行し、成功したかどうかを返す
func (r *jobRunner) Run() bool {
	r.logger.Infof("============================================================")
	r.logger.Infof("STARTING SCHEDULED INTELLIGENCE JOB")
	r.logger.Infof("============================================================")

	bin, err := exec.LookPath(r.cfg.Bin)
	if err != nil {
		r.logger.Errorf("Pipeline binary not found at %s: %v", r.cfg.Bin, err)
		return false
	}

	r.logger.Infof("Running intelligence pipeline: %s", bin)

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(bin, "-out", r.cfg.OutputRoot)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		r.logger.Errorf("Intelligence job failed: %v", err)
		r.logger.Errorf("Error output:")
		logLines(r.logger.Errorf, stderr.String())
		r.logger.Errorf("Standard output:")
		logLines(r.logger.Errorf, stdout.String())
		return false
	}

	r.logger.Infof("Intelligence job completed successfully")
	if r.cfg.Verbose {
		r.logger.Infof("Output:")
		logLines(r.logger.Infof, stdout.String())
	}
	return true
}

// logLines は複数行出力を1行ずつログ関数に流す
func logLines(logf func(format string, args ...any), text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if line != "" {
			logf("  %s", line)
		}
	}
}
