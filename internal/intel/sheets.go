// =============================================================================
// sheets.go - Google Sheetsエクスポート（Google Sheets Export）
// =============================================================================
//
// 分析結果をGoogle Sheetsへ書き出します。サービスアカウントの
// credentials.json で認証し、スプレッドシートIDが設定済みならそれを
// 開き、無ければ新規作成します。ワークシートは常に
// "Competitive Intelligence" 1枚で、毎回クリアしてから全行を書き直し
// ます。
//
// このエクスポートはベストエフォート: 失敗してもローカル成果物には
// 影響させず、呼び出し元が警告ログを出して続行します。
//
// =============================================================================
package intel

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

const worksheetTitle = "Competitive Intelligence"

// SheetsExporter は分析結果をGoogle Sheetsへ書き出す
type SheetsExporter struct {
	credentialsFile string
	spreadsheetID   string
	logger          *Logger
	now             func() time.Time
}

// NewSheetsExporter はSheetsExporterを構築する
//
// spreadsheetIDが空の場合、Exportは新しいスプレッドシートを作成する。
func NewSheetsExporter(credentialsFile, spreadsheetID string, logger *Logger) *SheetsExporter {
	return &SheetsExporter{
		credentialsFile: credentialsFile,
		spreadsheetID:   spreadsheetID,
		logger:          logger,
		now:             time.Now,
	}
}

// Export は分析結果をスプレッドシートへ書き込み、URLを返す
func (s *SheetsExporter) Export(ctx context.Context, records []AnalysisRecord) (string, error) {
	svc, err := s.authenticate(ctx)
	if err != nil {
		return "", err
	}

	spreadsheetID, sheetID, err := s.openOrCreate(svc)
	if err != nil {
		return "", err
	}

	// Build the full value grid, header first
	values := [][]any{{"Date", "Key insights", "Signal", "Risk"}}
	for _, r := range records {
		values = append(values, []any{r.Date, r.Narrative, string(r.Signal), string(r.Risk)})
	}

	// Clear old rows before rewriting
	if _, err := svc.Spreadsheets.Values.Clear(spreadsheetID, worksheetTitle, &sheets.ClearValuesRequest{}).Do(); err != nil {
		return "", fmt.Errorf("clearing worksheet: %w", err)
	}

	writeRange := fmt.Sprintf("%s!A1:D%d", worksheetTitle, len(values))
	valueRange := &sheets.ValueRange{Values: values}
	if _, err := svc.Spreadsheets.Values.Update(spreadsheetID, writeRange, valueRange).ValueInputOption("RAW").Do(); err != nil {
		return "", fmt.Errorf("updating worksheet: %w", err)
	}

	if err := s.formatHeader(svc, spreadsheetID, sheetID); err != nil {
		return "", err
	}

	url := fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit", spreadsheetID)
	s.logger.Infof("Successfully exported to Google Sheets: %s", url)
	return url, nil
}

// authenticate はサービスアカウント認証でSheetsクライアントを作る
func (s *SheetsExporter) authenticate(ctx context.Context) (*sheets.Service, error) {
	credentials, err := os.ReadFile(s.credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("google credentials file not found: %s: %w", s.credentialsFile, err)
	}

	oauthConfig, err := google.JWTConfigFromJSON(credentials, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}

	svc, err := sheets.New(oauthConfig.Client(ctx))
	if err != nil {
		return nil, fmt.Errorf("creating sheets client: %w", err)
	}

	s.logger.Infof("Successfully authenticated with Google Sheets API")
	return svc, nil
}

// openOrCreate は対象スプレッドシートを開き、必要ならワークシートと
// スプレッドシート本体を作成する。スプレッドシートIDとワークシートの
// 内部IDを返す。
func (s *SheetsExporter) openOrCreate(svc *sheets.Service) (string, int64, error) {
	if s.spreadsheetID == "" {
		title := fmt.Sprintf("Market Intelligence %s", s.now().Format("20060102_150405"))
		created, err := svc.Spreadsheets.Create(&sheets.Spreadsheet{
			Properties: &sheets.SpreadsheetProperties{Title: title},
			Sheets: []*sheets.Sheet{
				{Properties: &sheets.SheetProperties{Title: worksheetTitle}},
			},
		}).Do()
		if err != nil {
			return "", 0, fmt.Errorf("creating spreadsheet: %w", err)
		}
		s.spreadsheetID = created.SpreadsheetId
		s.logger.Infof("Created new Google Spreadsheet: %s", title)
		s.logger.Infof("Spreadsheet ID: %s (set GOOGLE_SPREADSHEET_ID in .env to reuse it)", created.SpreadsheetId)
		return created.SpreadsheetId, created.Sheets[0].Properties.SheetId, nil
	}

	spreadsheet, err := svc.Spreadsheets.Get(s.spreadsheetID).Do()
	if err != nil {
		return "", 0, fmt.Errorf("opening spreadsheet %s: %w", s.spreadsheetID, err)
	}
	s.logger.Infof("Opened existing spreadsheet: %s", spreadsheet.Properties.Title)

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == worksheetTitle {
			return s.spreadsheetID, sheet.Properties.SheetId, nil
		}
	}

	// Worksheet missing, add it
	resp, err := svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: worksheetTitle},
			}},
		},
	}).Do()
	if err != nil {
		return "", 0, fmt.Errorf("adding worksheet: %w", err)
	}
	return s.spreadsheetID, resp.Replies[0].AddSheet.Properties.SheetId, nil
}

// formatHeader はヘッダー行の装飾（青地に白の太字）と固定化を行う
func (s *SheetsExporter) formatHeader(svc *sheets.Service, spreadsheetID string, sheetID int64) error {
	white := &sheets.Color{Red: 1, Green: 1, Blue: 1}
	blue := &sheets.Color{Red: 0.2, Green: 0.4, Blue: 0.6}

	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:       sheetID,
					StartRowIndex: 0,
					EndRowIndex:   1,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						BackgroundColor: blue,
						TextFormat: &sheets.TextFormat{
							Bold:            true,
							ForegroundColor: white,
						},
					},
				},
				Fields: "userEnteredFormat(backgroundColor,textFormat)",
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: sheetID,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount: 1,
					},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	_, err := svc.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Do()
	if err != nil {
		return fmt.Errorf("formatting header row: %w", err)
	}
	return nil
}
