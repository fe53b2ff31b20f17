package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domain "github.com/amplerun/zain-crafter/internal/entity"
	"github.com/amplerun/zain-crafter/internal/usecase"
)

// SheetClient appends rows to a spreadsheet-like sink over its HTTP API.
type SheetClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewSheetClient(baseURL, token string, client *http.Client) *SheetClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &SheetClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    client,
	}
}

type appendRequest struct {
	Values [][]string `json:"values"`
}

func (c *SheetClient) AppendRow(ctx context.Context, sheetID string, row []string) error {
	body, err := json.Marshal(appendRequest{Values: [][]string{row}})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/v1/sheets/%s/values:append", c.baseURL, sheetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sheet append: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sheet append: sink returned %d: %s", resp.StatusCode, snippet)
	}
	return nil
}

// AuditLog appends one row per created order. Column order is fixed:
// order id, timestamp, customer, line items, total, shipping address, status.
type AuditLog struct {
	sheets *SheetClient
}

func NewAuditLog(sheets *SheetClient) *AuditLog { return &AuditLog{sheets: sheets} }

func (a *AuditLog) Name() domain.Channel { return domain.ChannelAuditLog }

func (a *AuditLog) Handles(event domain.EventKind) bool { return event == domain.EventCreated }

func (a *AuditLog) Send(ctx context.Context, o *domain.Order, _ domain.EventKind, cfg usecase.NotificationConfig) error {
	return a.sheets.AppendRow(ctx, cfg.AuditSheetID, []string{
		o.ID,
		o.CreatedAt.UTC().Format(time.RFC3339),
		o.CustomerName,
		lineSummary(o.Lines),
		formatCents(o.GrandCents),
		formatAddress(o.ShippingAddr),
		string(o.Status),
	})
}

var _ usecase.NotifyChannel = (*AuditLog)(nil)
