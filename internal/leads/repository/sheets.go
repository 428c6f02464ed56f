package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"nowas_backend/internal/leads/domain"
	"nowas_backend/platform/apperr"

	"github.com/google/uuid"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	// SheetTitle is the tab leads are written to. It must already exist.
	SheetTitle = "Leads"

	sheetColumns = "A:G"
	sheetTimeFmt = time.RFC3339
)

// sheetHeader is written to row 1 when the tab is empty.
var sheetHeader = []interface{}{"ID", "Fecha", "Nombre", "Teléfono", "Email", "Nota", "Estado"}

// SheetsStore keeps one lead per row of the Leads tab.
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string
	// writeMu serialises the read-then-rewrite of UpdateStatus so two admins
	// cannot interleave on the same row lookup.
	writeMu sync.Mutex
}

// ServiceAccount returns the client option that authenticates as a Google
// service account. privateKey is the PEM block with real newlines.
func ServiceAccount(ctx context.Context, clientEmail, privateKey string) option.ClientOption {
	conf := &jwt.Config{
		Email:      clientEmail,
		PrivateKey: []byte(privateKey),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}
	return option.WithHTTPClient(conf.Client(ctx))
}

// NewSheetsStore connects to the spreadsheet, checks the Leads tab exists and
// writes the header row if the tab is empty.
func NewSheetsStore(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*SheetsStore, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, apperr.StoreUnavailable("NewSheetsStore", err)
	}

	s := &SheetsStore{svc: svc, spreadsheetID: spreadsheetID}
	if err := s.Ping(ctx); err != nil {
		return nil, err
	}
	if err := s.ensureHeader(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Ping verifies the spreadsheet is reachable and still has the Leads tab.
func (s *SheetsStore) Ping(ctx context.Context) error {
	doc, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return apperr.StoreUnavailable("Ping", err)
	}
	for _, sheet := range doc.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == SheetTitle {
			return nil
		}
	}
	return apperr.StoreUnavailable("Ping", fmt.Errorf("sheet %q not found", SheetTitle))
}

func (s *SheetsStore) ensureHeader(ctx context.Context) error {
	rng := SheetTitle + "!A1:G1"
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return apperr.StoreUnavailable("ensureHeader", err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		if !headerMatches(resp.Values[0]) {
			return apperr.StoreUnavailable("ensureHeader",
				fmt.Errorf("sheet %q has an unexpected header row %v", SheetTitle, resp.Values[0]))
		}
		return nil
	}

	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, &sheets.ValueRange{
		Values: [][]interface{}{sheetHeader},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return apperr.StoreUnavailable("ensureHeader", err)
	}
	return nil
}

func headerMatches(row []interface{}) bool {
	if len(row) < len(sheetHeader) {
		return false
	}
	for i, want := range sheetHeader {
		if strings.TrimSpace(fmt.Sprint(row[i])) != want {
			return false
		}
	}
	return true
}

func (s *SheetsStore) Append(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	if lead.Status == "" {
		lead.Status = domain.StatusNew
	}

	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, SheetTitle+"!"+sheetColumns, &sheets.ValueRange{
		Values: [][]interface{}{leadToRow(lead)},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return domain.Lead{}, apperr.StoreUnavailable("Append", err)
	}
	return lead, nil
}

func (s *SheetsStore) List(ctx context.Context) ([]domain.Lead, error) {
	rows, err := s.dataRows(ctx)
	if err != nil {
		return nil, apperr.StoreUnavailable("List", err)
	}

	items := make([]domain.Lead, 0, len(rows))
	for _, row := range rows {
		lead, ok := rowToLead(row)
		if !ok {
			continue
		}
		items = append(items, lead)
	}
	return items, nil
}

func (s *SheetsStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (domain.Lead, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	rows, err := s.dataRows(ctx)
	if err != nil {
		return domain.Lead{}, apperr.StoreUnavailable("UpdateStatus", err)
	}

	for i, row := range rows {
		lead, ok := rowToLead(row)
		if !ok || lead.ID != id {
			continue
		}
		lead.Status = status

		// Data starts on row 2, below the header. Only the Estado cell is
		// written so hand-edited cells in the rest of the row survive.
		rowNumber := i + 2
		rng := fmt.Sprintf("%s!G%d", SheetTitle, rowNumber)
		_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, &sheets.ValueRange{
			Values: [][]interface{}{{string(status)}},
		}).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return domain.Lead{}, apperr.StoreUnavailable("UpdateStatus", err)
		}
		return lead, nil
	}

	return domain.Lead{}, errLeadNotFound(id)
}

func (s *SheetsStore) Backend() string { return "sheets" }

func (s *SheetsStore) dataRows(ctx context.Context) ([][]interface{}, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, SheetTitle+"!A2:G").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func leadToRow(lead domain.Lead) []interface{} {
	return []interface{}{
		lead.ID.String(),
		lead.SubmittedAt.Format(sheetTimeFmt),
		lead.Name,
		lead.Phone,
		lead.Email,
		lead.Note,
		string(lead.Status),
	}
}

// rowToLead skips rows without a valid id, such as hand-entered notes.
func rowToLead(row []interface{}) (domain.Lead, bool) {
	cell := func(i int) string {
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(row[i]))
	}

	id, err := uuid.Parse(cell(0))
	if err != nil {
		return domain.Lead{}, false
	}

	submittedAt, _ := time.Parse(sheetTimeFmt, cell(1))
	status, ok := domain.ParseStatus(cell(6))
	if !ok {
		status = domain.Status(cell(6))
	}

	return domain.Lead{
		ID:          id,
		SubmittedAt: submittedAt,
		Name:        cell(2),
		Phone:       cell(3),
		Email:       cell(4),
		Note:        cell(5),
		Status:      status,
	}, true
}
