// =============================================================================
// main.go - 競合インテリジェンスパイプラインのエントリーポイント
// =============================================================================
//
// このプログラムは、パワー半導体市場のニュース収集・AI分析・レポート
// 出力を自動化するCLIツールです。
//
// =============================================================================
// 【処理フロー】
// =============================================================================
//
//   ┌─────────────┐    ┌─────────────┐    ┌─────────────┐
//   │  1. 設定    │ -> │  2. 収集    │ -> │  3. 集約    │
//   │  読み込み   │    │  スクレイピ │    │  日単位     │
//   └─────────────┘    └─────────────┘    └─────────────┘
//          │                  │                  │
//          v                  v                  v
//   .env読み込み        3ソースから        日付ごとに
//   CLIフラグ解析       テキスト抽出       バッチ化
//
//   ┌─────────────┐    ┌─────────────┐    ┌─────────────┐
//   │  4. 分析    │ -> │  5. 出力    │ -> │  6. 配信    │
//   │  OpenAI API │    │  CSV/JSON   │    │  Sheets     │
//   └─────────────┘    └─────────────┘    └─────────────┘
//          │                  │                  │
//          v                  v                  v
//   Signal/Risk判定      レポート生成       Google Sheets
//   ナラティブ生成       サマリー保存       （任意）
//
// =============================================================================
// 【CLIフラグ一覧】
// =============================================================================
//
// ▼ 収集設定
//   -sources         収集するソースキー（カンマ区切り、デフォルト: all）
//   -cooldown        ソース間の待機秒数（デフォルト: 2）
//   -timeout         HTTPタイムアウト秒数（デフォルト: 10）
//
// ▼ 出力設定
//   -out             成果物ルートディレクトリ（デフォルト: カレント）
//
// ▼ 分析設定
//   -model           分析モデル名（デフォルト: OPENAI_MODEL または gpt-4o）
//   -skipAnalysis    収集と生データ保存のみ行う
//
// ▼ Sheets設定
//   -sheets          Google Sheetsエクスポートの有効/無効（デフォルト: 有効）
//   -credentials     サービスアカウント資格情報のパス
//   -spreadsheetID   既存スプレッドシートID（空なら新規作成）
//
// =============================================================================
// 【初心者向けポイント】
// =============================================================================
//
// - flag パッケージでCLI引数を解析
// - godotenv パッケージで.envファイルを読み込み
// - ログは標準エラー出力とlogs/配下のファイルの両方に出力
// - stdoutには最後のサマリーのみを出力
//
// =============================================================================
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv" // .env ファイル読み込み

	"github.com/helloannapo/infmarketmonitoring/internal/intel"
)

// main はパイプライン全体の制御フロー
//
// パイプライン処理の概要:
//   1. 設定ソースの候補URLを順に試してテキストを抽出
//   2. 抽出結果を日付単位のバッチに集約
//   3. 各バッチをOpenAIで分析し、Signal/Risk付きレコードを生成
//   4. CSVレポート・テキストサマリーを保存、Google Sheetsへ配信
func main() {
	// .env ファイルから環境変数を読み込み
	// ファイルが存在しない場合はログを出力するが、処理は続行する
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "WARN: .env file not loaded: %v (using environment variables only)\n", err)
	}

	// CLIフラグを解析（config.goのParseFlags）
	cfg := ParseFlags()

	// --- 出力ディレクトリとログファイルの用意 ---
	boot := intel.NewLogger(os.Stderr)
	exporter := intel.NewExporter(cfg.Output.Root, boot)
	if err := exporter.EnsureDirs(); err != nil {
		boot.Errorf("%v", err)
		os.Exit(1)
	}

	logger := boot
	logPath := filepath.Join(exporter.LogDir(), fmt.Sprintf("intelligence_%s.log", time.Now().Format("20060102_150405")))
	logFile, err := os.Create(logPath)
	if err != nil {
		boot.Warnf("could not open log file %s: %v", logPath, err)
	} else {
		defer logFile.Close()
		logger = intel.NewLogger(io.MultiWriter(os.Stderr, logFile))
		exporter = intel.NewExporter(cfg.Output.Root, logger)
	}

	logger.Infof("Starting Competitive Intelligence Analysis")

	// OpenAI API key check (only if analysis is enabled)
	apiKey := os.Getenv("OPENAI_API_KEY")
	if !cfg.Model.SkipAnalysis && apiKey == "" {
		logger.Errorf("set OPENAI_API_KEY (OpenAI API key) in your environment")
		logger.Infof("To scrape without analysis, use -skipAnalysis")
		os.Exit(1)
	}

	// --- 1) ソース選択 ---
	registry := intel.NewRegistry()
	registry.LogSources(logger)

	keys := cfg.Input.Sources()
	for _, k := range keys {
		if _, err := registry.ByKey(k); err != nil {
			logger.Warnf("%v (skipping)", err)
		}
	}
	specs := registry.Filter(keys)
	if len(specs) == 0 {
		logger.Errorf("no enabled sources selected")
		os.Exit(1)
	}

	// --- 2) スクレイピング ---
	scrapeCfg := intel.DefaultScrapeConfig()
	scrapeCfg.Cooldown = time.Duration(cfg.Input.CooldownSec) * time.Second
	scrapeCfg.Timeout = time.Duration(cfg.Input.TimeoutSec) * time.Second
	scrapeCfg.Client.Timeout = scrapeCfg.Timeout

	extractor := intel.NewExtractor(scrapeCfg, logger)
	results := extractor.ScrapeAll(specs)

	// --- 3) 生データ保存 ---
	// ScrapeAllはspecsと同順で返すため、indexでキーを対応付ける
	raw := make(map[string]intel.ScrapeResult, len(results))
	for i, spec := range specs {
		raw[spec.Key] = results[i]
	}
	if _, err := exporter.WriteRawSnapshot(raw); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}

	if cfg.Model.SkipAnalysis {
		logger.Infof("Analysis skipped (-skipAnalysis), done")
		return
	}

	// --- 4) 日単位の集約 ---
	batches := intel.NewAggregator(logger).Aggregate(results, time.Now())

	// --- 5) AI分析 ---
	analyzer, err := intel.NewAnalyzer(apiKey, cfg.Model.Model, logger)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
	records := analyzer.AnalyzeBatches(batches)

	// --- 6) ローカルエクスポート ---
	// CSVは主成果物なので失敗したら実行ごと失敗させる
	csvPath, err := exporter.WriteCSV(records)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}

	// --- 7) Google Sheets配信（ベストエフォート） ---
	var sheetsURL string
	if cfg.Sheets.Export {
		if _, statErr := os.Stat(cfg.Sheets.CredentialsFile); statErr != nil {
			logger.Infof("Google Sheets export skipped - credentials not found (%s)", cfg.Sheets.CredentialsFile)
		} else {
			sheetsExporter := intel.NewSheetsExporter(cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID, logger)
			url, err := sheetsExporter.Export(context.Background(), records)
			if err != nil {
				logger.Warnf("Google Sheets export failed: %v", err)
				logger.Infof("Local export completed successfully")
			} else {
				sheetsURL = url
			}
		}
	}

	// --- 8) テキストサマリー ---
	summaryPath, err := exporter.WriteSummary(records)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}

	logger.Infof("============================================================")
	logger.Infof("COMPETITIVE INTELLIGENCE COMPLETED")
	logger.Infof("============================================================")
	logger.Infof("Report file: %s", csvPath)
	if sheetsURL != "" {
		logger.Infof("Google Sheets: %s", sheetsURL)
	}
	logger.Infof("Analysis file: %s", summaryPath)
	logger.Infof("============================================================")

	intel.PrintSummary(os.Stdout, records)
}
