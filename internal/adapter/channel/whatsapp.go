package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	domain "github.com/amplerun/zain-crafter/internal/entity"
	"github.com/amplerun/zain-crafter/internal/usecase"
)

const (
	sellerTemplate       = "new_order_notification"
	confirmationTemplate = "order_confirmation"
	statusTemplate       = "order_status_update"
)

// WhatsAppClient talks to a 360dialog-style messaging gateway.
type WhatsAppClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewWhatsAppClient(baseURL, apiKey string, client *http.Client) *WhatsAppClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &WhatsAppClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    client,
	}
}

type templateMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Template         template `json:"template"`
}

type template struct {
	Name       string      `json:"name"`
	Language   language    `json:"language"`
	Components []component `json:"components"`
}

type language struct {
	Code string `json:"code"`
}

type component struct {
	Type       string      `json:"type"`
	Parameters []parameter `json:"parameters"`
}

type parameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SendTemplate pushes one templated message. The gateway expects the number
// without a leading plus.
func (c *WhatsAppClient) SendTemplate(ctx context.Context, to, name string, params []string) error {
	if to == "" {
		return fmt.Errorf("whatsapp: no recipient number")
	}
	ps := make([]parameter, len(params))
	for i, p := range params {
		ps[i] = parameter{Type: "text", Text: p}
	}
	msg := templateMessage{
		MessagingProduct: "whatsapp",
		To:               strings.TrimPrefix(to, "+"),
		Type:             "template",
		Template: template{
			Name:       name,
			Language:   language{Code: "en"},
			Components: []component{{Type: "body", Parameters: ps}},
		},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("D360-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whatsapp send: gateway returned %d: %s", resp.StatusCode, snippet)
	}
	return nil
}

// SellerAlert pushes a new-order message to the configured operator number.
type SellerAlert struct {
	wa *WhatsAppClient
}

func NewSellerAlert(wa *WhatsAppClient) *SellerAlert { return &SellerAlert{wa: wa} }

func (s *SellerAlert) Name() domain.Channel { return domain.ChannelSellerAlert }

func (s *SellerAlert) Handles(event domain.EventKind) bool { return event == domain.EventCreated }

func (s *SellerAlert) Send(ctx context.Context, o *domain.Order, _ domain.EventKind, cfg usecase.NotificationConfig) error {
	return s.wa.SendTemplate(ctx, cfg.SellerAddress, sellerTemplate, []string{
		o.ID,
		o.CustomerName,
		lineSummary(o.Lines),
		formatCents(o.GrandCents),
		formatAddress(o.ShippingAddr),
		orDefault(o.ShippingAddr.Phone, "not provided"),
	})
}

// CustomerAlert messages the order's contact phone: a confirmation on
// creation, a status update afterwards.
type CustomerAlert struct {
	wa *WhatsAppClient
}

func NewCustomerAlert(wa *WhatsAppClient) *CustomerAlert { return &CustomerAlert{wa: wa} }

func (c *CustomerAlert) Name() domain.Channel { return domain.ChannelCustomerAlert }

func (c *CustomerAlert) Handles(event domain.EventKind) bool {
	return event == domain.EventCreated || event == domain.EventStatusChanged
}

func (c *CustomerAlert) Send(ctx context.Context, o *domain.Order, event domain.EventKind, _ usecase.NotificationConfig) error {
	if o.ShippingAddr.Phone == "" {
		return fmt.Errorf("customer alert: order %s has no contact phone", o.ID)
	}
	if event == domain.EventStatusChanged {
		return c.wa.SendTemplate(ctx, o.ShippingAddr.Phone, statusTemplate, []string{
			o.ID,
			string(o.Status),
			orDefault(o.TrackingNumber, "-"),
		})
	}
	return c.wa.SendTemplate(ctx, o.ShippingAddr.Phone, confirmationTemplate, []string{
		o.ID,
		lineSummary(o.Lines),
		formatCents(o.GrandCents),
	})
}

func lineSummary(lines []domain.OrderLine) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = fmt.Sprintf("• %s (%d × %s)", l.Name, l.Quantity, formatCents(l.UnitCents))
	}
	return strings.Join(parts, "\n")
}

func formatAddress(a domain.Address) string {
	return fmt.Sprintf("%s, %s, %s, %s, %s", a.Street, a.City, a.Region, a.Postal, a.Country)
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

var (
	_ usecase.NotifyChannel = (*SellerAlert)(nil)
	_ usecase.NotifyChannel = (*CustomerAlert)(nil)
)
