package qpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tavan-shop/storefront/internal/metrics"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid   = errors.New("qpay config invalid")
	ErrAuthFailed      = errors.New("qpay auth failed")
	ErrRequestFailed   = errors.New("qpay request failed")
	ErrResponseInvalid = errors.New("qpay response invalid")
	ErrTransport       = errors.New("qpay transport failed")
)

const (
	defaultBaseURL      = "https://merchant.qpay.mn/v2"
	defaultQRRenderURL  = "https://api.qrserver.com/v1/create-qr-code/?size=300x300&data="
	defaultTimeout      = 15 * time.Second
	defaultReceiverCode = "terminal"
	maxBodyBytes        = 1 << 20
	gatewayName         = "qpay"
)

// 发票状态
const (
	InvoiceStatusOpen      = "OPEN"
	InvoiceStatusPaid      = "PAID"
	InvoiceStatusCancelled = "CANCELLED"
	InvoiceStatusExpired   = "EXPIRED"
)

// APIError 网关返回非 2xx，Body 仅用于日志
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("qpay status %d", e.StatusCode)
}

// Is 支持 errors.Is(err, ErrRequestFailed)
func (e *APIError) Is(target error) bool {
	return target == ErrRequestFailed
}

// Config QPay 商户配置
type Config struct {
	BaseURL     string `json:"base_url"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	InvoiceCode string `json:"invoice_code"`
	CallbackURL string `json:"callback_url"`
	QRRenderURL string `json:"qr_render_url"`
	Timeout     time.Duration
}

// ValidateConfig 校验配置，缺少凭证属于致命配置错误
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.Username) == "" || strings.TrimSpace(cfg.Password) == "" {
		return fmt.Errorf("%w: username and password are required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.InvoiceCode) == "" {
		return fmt.Errorf("%w: invoice_code is required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(strings.TrimSpace(cfg.BaseURL)); err != nil {
		return fmt.Errorf("%w: base_url is invalid", ErrConfigInvalid)
	}
	return nil
}

func (c *Config) normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	c.Username = strings.TrimSpace(c.Username)
	c.Password = strings.TrimSpace(c.Password)
	c.InvoiceCode = strings.TrimSpace(c.InvoiceCode)
	c.CallbackURL = strings.TrimSpace(c.CallbackURL)
	c.QRRenderURL = strings.TrimSpace(c.QRRenderURL)
	if c.QRRenderURL == "" {
		c.QRRenderURL = defaultQRRenderURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Client QPay v2 客户端，持有令牌缓存；不做自动重试
type Client struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time

	mu    sync.Mutex
	token TokenCache
}

// NewClient 创建客户端，配置不完整时返回 ErrConfigInvalid
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	cfg.normalize()
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{cfg: cfg, httpClient: httpClient, now: time.Now}, nil
}

// CreateInvoiceInput 创建发票输入
type CreateInvoiceInput struct {
	OrderRef    string
	Amount      decimal.Decimal
	Description string
	CallbackURL string
}

// Invoice 网关发票
type Invoice struct {
	InvoiceID string `json:"invoice_id"`
	QRText    string `json:"qr_text"`
	QRImage   string `json:"qr_image"`
	ShortURL  string `json:"short_url"`
	Links     []Link `json:"links"`
}

// Link 银行 App 深链
type Link struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
	Link        string `json:"link"`
}

// InvoiceDetail 发票详情
type InvoiceDetail struct {
	InvoiceID string
	Status    string
	Amount    decimal.Decimal
}

// CheckResult 支付查询结果
type CheckResult struct {
	Paid          bool
	PaidAmount    decimal.Decimal
	InvoiceAmount decimal.Decimal
	Status        string
}

// Failed 发票已取消或过期
func (r *CheckResult) Failed() bool {
	if r == nil || r.Paid {
		return false
	}
	return r.Status == InvoiceStatusCancelled || r.Status == InvoiceStatusExpired
}

// CreateInvoice 创建发票；网关未返回二维码图片时由 qr_text 生成
func (c *Client) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (inv *Invoice, err error) {
	defer func(started time.Time) { metrics.ObserveGateway(gatewayName, "create_invoice", started, err) }(time.Now())

	ref := strings.TrimSpace(input.OrderRef)
	if ref == "" || !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: order ref and positive amount are required", ErrRequestFailed)
	}
	callbackURL := strings.TrimSpace(input.CallbackURL)
	if callbackURL == "" {
		callbackURL = c.cfg.CallbackURL
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = ref
	}

	payload := map[string]interface{}{
		"invoice_code":          c.cfg.InvoiceCode,
		"sender_invoice_no":     ref,
		"invoice_receiver_code": defaultReceiverCode,
		"invoice_description":   description,
		"amount":                input.Amount.Round(2).InexactFloat64(),
		"callback_url":          callbackURL,
	}
	raw, err := c.doJSON(ctx, http.MethodPost, "/invoice", payload)
	if err != nil {
		return nil, err
	}

	inv = &Invoice{
		InvoiceID: strings.TrimSpace(readString(raw, "invoice_id")),
		QRText:    strings.TrimSpace(readString(raw, "qr_text")),
		QRImage:   strings.TrimSpace(readString(raw, "qr_image")),
		ShortURL:  strings.TrimSpace(readString(raw, "qPay_shortUrl")),
	}
	if inv.InvoiceID == "" {
		return nil, fmt.Errorf("%w: invoice_id is missing", ErrResponseInvalid)
	}
	if list, ok := raw["urls"].([]interface{}); ok {
		for _, item := range list {
			entry, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			inv.Links = append(inv.Links, Link{
				Name:        readString(entry, "name"),
				Description: readString(entry, "description"),
				Logo:        readString(entry, "logo"),
				Link:        readString(entry, "link"),
			})
		}
	}
	inv.QRImage = c.qrImage(inv.QRImage, inv.QRText)
	return inv, nil
}

// qrImage base64 图片补全 data URI；缺失时用公共渲染地址生成
func (c *Client) qrImage(image, text string) string {
	switch {
	case image == "" && text == "":
		return ""
	case image == "":
		return c.cfg.QRRenderURL + url.QueryEscape(text)
	case strings.HasPrefix(image, "http://"), strings.HasPrefix(image, "https://"), strings.HasPrefix(image, "data:"):
		return image
	default:
		return "data:image/png;base64," + image
	}
}

// GetInvoice 查询发票详情
func (c *Client) GetInvoice(ctx context.Context, invoiceID string) (detail *InvoiceDetail, err error) {
	defer func(started time.Time) { metrics.ObserveGateway(gatewayName, "get_invoice", started, err) }(time.Now())

	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return nil, fmt.Errorf("%w: invoice id is required", ErrRequestFailed)
	}
	raw, err := c.doJSON(ctx, http.MethodGet, "/invoice/"+url.PathEscape(invoiceID), nil)
	if err != nil {
		return nil, err
	}
	amount := readDecimal(raw, "total_amount")
	if amount.IsZero() {
		amount = readDecimal(raw, "gross_amount")
	}
	if amount.IsZero() {
		amount = readDecimal(raw, "amount")
	}
	return &InvoiceDetail{
		InvoiceID: invoiceID,
		Status:    strings.ToUpper(strings.TrimSpace(readString(raw, "invoice_status"))),
		Amount:    amount,
	}, nil
}

// CheckInvoice 查询发票是否已付清：已付金额不小于发票金额即视为支付成功
func (c *Client) CheckInvoice(ctx context.Context, invoiceID string) (result *CheckResult, err error) {
	detail, err := c.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	defer func(started time.Time) { metrics.ObserveGateway(gatewayName, "check_payment", started, err) }(time.Now())

	payload := map[string]interface{}{
		"object_type": "INVOICE",
		"object_id":   detail.InvoiceID,
		"offset": map[string]int{
			"page_number": 1,
			"page_limit":  100,
		},
	}
	raw, err := c.doJSON(ctx, http.MethodPost, "/payment/check", payload)
	if err != nil {
		return nil, err
	}
	paid := readDecimal(raw, "paid_amount")
	if paid.IsZero() {
		paid = sumPaidRows(raw)
	}

	result = &CheckResult{
		PaidAmount:    paid,
		InvoiceAmount: detail.Amount,
		Status:        detail.Status,
	}
	result.Paid = detail.Amount.IsPositive() && paid.GreaterThanOrEqual(detail.Amount)
	if result.Paid {
		result.Status = InvoiceStatusPaid
	}
	return result, nil
}

func sumPaidRows(raw map[string]interface{}) decimal.Decimal {
	total := decimal.Zero
	rows, ok := raw["rows"].([]interface{})
	if !ok {
		return total
	}
	for _, item := range rows {
		row, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if strings.ToUpper(readString(row, "payment_status")) != InvoiceStatusPaid {
			continue
		}
		total = total.Add(readDecimal(row, "payment_amount"))
	}
	return total
}

// CancelInvoice 取消发票
func (c *Client) CancelInvoice(ctx context.Context, invoiceID string) (ok bool, err error) {
	defer func(started time.Time) { metrics.ObserveGateway(gatewayName, "cancel_invoice", started, err) }(time.Now())

	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return false, fmt.Errorf("%w: invoice id is required", ErrRequestFailed)
	}
	if _, err := c.doJSON(ctx, http.MethodDelete, "/invoice/"+url.PathEscape(invoiceID), nil); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload interface{}) (map[string]interface{}, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal request failed", ErrRequestFailed)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response failed", ErrTransport)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateToken()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	raw := map[string]interface{}{}
	if len(bytes.TrimSpace(respBody)) == 0 {
		return raw, nil
	}
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	return raw, nil
}

func readString(raw map[string]interface{}, path ...string) string {
	val := readValue(raw, path...)
	switch v := val.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return decimal.NewFromFloat(v).String()
	default:
		return ""
	}
}

func readDecimal(raw map[string]interface{}, path ...string) decimal.Decimal {
	switch v := readValue(raw, path...).(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

func readValue(raw map[string]interface{}, path ...string) interface{} {
	var current interface{} = raw
	for _, key := range path {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current = m[key]
	}
	return current
}
