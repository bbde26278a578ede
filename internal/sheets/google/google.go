package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"saldo/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultSheetName = "Ledger"

// Config selects the spreadsheet and the credentials used to reach it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Client mirrors ledger rows into one sheet of a spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	mu            sync.Mutex
	sheetID       int64
	sheetResolved bool
	headerChecked bool
}

var _ sheets.LedgerMirror = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_SHEET_NAME (default "Ledger").
func NewFromEnv(ctx context.Context) (*Client, error) {
	return New(ctx, Config{
		SpreadsheetID:      os.Getenv("GOOGLE_SPREADSHEET_ID"),
		SheetName:          os.Getenv("GOOGLE_SHEET_NAME"),
		ServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		ServiceAccountFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	})
}

func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	if len(opts) == 0 {
		creds, err := loadCredentials(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return newClient(svc, spreadsheetID, cfg.SheetName), nil
}

func newClient(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = defaultSheetName
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

// loadCredentials reads the service account key, inline JSON first.
func loadCredentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading service account credentials", "path", file)
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// AppendRows writes rows after the last used row. The header is written
// first when the sheet is empty.
func (c *Client) AppendRows(ctx context.Context, rows []sheets.Row) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if len(rows) == 0 {
		return nil
	}

	values := make([][]any, 0, len(rows)+1)
	needHeader, err := c.needsHeader(ctx)
	if err != nil {
		return err
	}
	if needHeader {
		header := make([]any, len(sheets.Header))
		for i, h := range sheets.Header {
			header[i] = h
		}
		values = append(values, header)
	}
	for _, r := range rows {
		values = append(values, r.Values())
	}

	rng := fmt.Sprintf("%s!A:H", c.sheetName)
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	c.mu.Lock()
	c.headerChecked = true
	c.mu.Unlock()

	slog.DebugContext(ctx, "Rows mirrored", "sheet", c.sheetName, "rows", len(rows))
	return nil
}

func (c *Client) needsHeader(ctx context.Context) (bool, error) {
	c.mu.Lock()
	checked := c.headerChecked
	c.mu.Unlock()
	if checked {
		return false, nil
	}

	rng := fmt.Sprintf("%s!A1:A1", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("read %s: %w", rng, err)
	}
	return len(resp.Values) == 0, nil
}

// DeleteRows removes every row whose ID (column A) or ParentID (column B)
// is listed. Rows are deleted bottom-up so indexes stay valid.
func (c *Client) DeleteRows(ctx context.Context, ids []string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if len(ids) == 0 {
		return nil
	}

	rng := fmt.Sprintf("%s!A:B", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	spans := rowSpans(matchingRows(resp.Values, ids))
	if len(spans) == 0 {
		return nil
	}

	sheetID, err := c.resolveSheetID(ctx)
	if err != nil {
		return err
	}

	requests := make([]*gsheet.Request, 0, len(spans))
	for _, s := range spans {
		requests = append(requests, &gsheet.Request{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "ROWS",
					StartIndex:      s[0],
					EndIndex:        s[1],
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		})
	}
	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: requests}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("delete rows in sheet %s: %w", c.sheetName, err)
	}

	slog.DebugContext(ctx, "Mirrored rows deleted", "sheet", c.sheetName, "ranges", len(spans))
	return nil
}

func (c *Client) resolveSheetID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sheetResolved {
		return c.sheetID, nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			c.sheetID = sh.Properties.SheetId
			c.sheetResolved = true
			return c.sheetID, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheetName)
}

// matchingRows returns the zero-based indexes of rows to delete.
func matchingRows(values [][]any, ids []string) []int64 {
	var out []int64
	for i, row := range values {
		cols := toStrings(row)
		if len(cols) == 0 {
			continue
		}
		if slices.Contains(ids, cols[0]) || (len(cols) > 1 && cols[1] != "" && slices.Contains(ids, cols[1])) {
			out = append(out, int64(i))
		}
	}
	return out
}

// rowSpans groups ascending indexes into [start, end) spans, last first.
func rowSpans(rows []int64) [][2]int64 {
	var spans [][2]int64
	for _, r := range rows {
		if n := len(spans); n > 0 && spans[n-1][1] == r {
			spans[n-1][1] = r + 1
			continue
		}
		spans = append(spans, [2]int64{r, r + 1})
	}
	slices.Reverse(spans)
	return spans
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
