package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pkravchenko/b24-dealsync/internal/metrics"
	"github.com/pkravchenko/b24-dealsync/pkg/bxval"
)

const (
	defaultConnectTimeout = 8 * time.Second
	defaultReadTimeout    = 30 * time.Second
	defaultRetries        = 6
	defaultBackoff        = 800 * time.Millisecond
)

// Statuses Bitrix returns transiently under load; same set urllib3-based
// integrations retry on.
var retryStatuses = map[int]struct{}{
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// RestClient implements Client over an outgoing-webhook base URL.
type RestClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	retries int
	backoff time.Duration
	log     *slog.Logger
}

// RestOption configures the RestClient.
type RestOption func(*RestClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) RestOption {
	return func(c *RestClient) {
		c.client = hc
	}
}

// WithTimeouts sets the connect and overall read timeouts.
func WithTimeouts(connect, read time.Duration) RestOption {
	return func(c *RestClient) {
		c.client = &http.Client{
			Timeout: read,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: connect}).DialContext,
				MaxIdleConnsPerHost: 10,
			},
		}
	}
}

// WithRetryPolicy sets the retry attempt count and exponential backoff base.
func WithRetryPolicy(retries int, backoff time.Duration) RestOption {
	return func(c *RestClient) {
		c.retries = retries
		c.backoff = backoff
	}
}

// WithRateLimit throttles outgoing calls to perSecond with the given burst.
func WithRateLimit(perSecond float64, burst int) RestOption {
	return func(c *RestClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) RestOption {
	return func(c *RestClient) {
		c.log = l
	}
}

// NewRestClient creates a Bitrix REST client for the given outgoing-webhook
// base URL (https://host/rest/<user>/<token>/).
func NewRestClient(baseURL string, opts ...RestOption) *RestClient {
	c := &RestClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		client: &http.Client{
			Timeout: defaultReadTimeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: defaultConnectTimeout}).DialContext,
				MaxIdleConnsPerHost: 10,
			},
		},
		retries: defaultRetries,
		backoff: defaultBackoff,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiEnvelope struct {
	Result           json.RawMessage `json:"result"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

func (c *RestClient) postJSON(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("bitrix %s: encoding payload: %w", method, err)
	}
	return c.do(ctx, method, "application/json", body)
}

func (c *RestClient) postForm(ctx context.Context, method string, form url.Values) (json.RawMessage, error) {
	return c.do(ctx, method, "application/x-www-form-urlencoded", []byte(form.Encode()))
}

func (c *RestClient) do(ctx context.Context, method, contentType string, body []byte) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	metrics.BitrixCallsTotal.WithLabelValues(method).Inc()
	start := time.Now()
	defer func() {
		metrics.BitrixCallDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			metrics.BitrixRetriesTotal.Inc()
			if err := sleepCtx(ctx, c.backoffDelay(attempt)); err != nil {
				return nil, err
			}
		}

		raw, retryable, err := c.attempt(ctx, method, contentType, body)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		c.log.Warn("bitrix call retrying",
			"method", method,
			"attempt", attempt+1,
			"error", err,
		)
	}

	metrics.BitrixErrorsTotal.WithLabelValues(errorKind(lastErr)).Inc()
	return nil, lastErr
}

func (c *RestClient) attempt(ctx context.Context, method, contentType string, body []byte) (json.RawMessage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+method, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("bitrix %s: creating request: %w", method, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, true, &TransportError{Method: method, Timeout: isNetTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, &TransportError{Method: method, Timeout: isNetTimeout(err), Err: err}
	}

	if _, retryable := retryStatuses[resp.StatusCode]; retryable {
		return nil, true, &RequestError{Method: method, Status: resp.StatusCode, Body: clipBody(respBody)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, &RequestError{Method: method, Status: resp.StatusCode, Body: clipBody(respBody)}
	}

	var env apiEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, false, fmt.Errorf("bitrix %s: parsing response: %w", method, err)
	}
	if env.Error != "" {
		return nil, false, &APIError{Method: method, Code: env.Error, Description: env.ErrorDescription}
	}
	return env.Result, false, nil
}

// backoffDelay follows the urllib3 convention: backoff * 2^(retry-1).
func (c *RestClient) backoffDelay(attempt int) time.Duration {
	return c.backoff * time.Duration(1<<(attempt-1))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isNetTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func errorKind(err error) string {
	switch {
	case IsTimeout(err):
		return "timeout"
	case IsAPIError(err):
		return "api"
	default:
		return "remote"
	}
}

func clipBody(b []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(b))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}

// decodeResult unmarshals a result payload keeping numbers as json.Number,
// so large integer ids survive flattening without float formatting.
func decodeResult(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

// DealProductRows implements Client.
func (c *RestClient) DealProductRows(ctx context.Context, dealID int64) ([]ProductRow, error) {
	raw, err := c.postJSON(ctx, "crm.deal.productrows.get", map[string]any{"id": dealID})
	if err != nil {
		return nil, err
	}

	var items []map[string]any
	if err := decodeResult(raw, &items); err != nil {
		return nil, fmt.Errorf("bitrix crm.deal.productrows.get: parsing result: %w", err)
	}

	rows := make([]ProductRow, 0, len(items))
	for _, item := range items {
		if pid := bxval.Flatten(item["PRODUCT_ID"]); pid != "" {
			rows = append(rows, ProductRow{ProductID: pid})
		}
	}
	return rows, nil
}

// DealGet implements Client.
func (c *RestClient) DealGet(ctx context.Context, dealID int64) (*Deal, error) {
	raw, err := c.postJSON(ctx, "crm.deal.get", map[string]any{"id": dealID})
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := decodeResult(raw, &fields); err != nil {
		return nil, fmt.Errorf("bitrix crm.deal.get: parsing result: %w", err)
	}
	if fields == nil {
		return nil, &APIError{Method: "crm.deal.get", Code: "NOT_FOUND", Description: fmt.Sprintf("deal %d has no fields", dealID)}
	}
	return dealFromFields(dealID, fields), nil
}

// DealUpdateField implements Client.
func (c *RestClient) DealUpdateField(ctx context.Context, dealID int64, field string, value any) (bool, error) {
	raw, err := c.postJSON(ctx, "crm.deal.update", map[string]any{
		"id":     dealID,
		"fields": map[string]any{field: value},
	})
	if err != nil {
		return false, err
	}

	var ok bool
	if err := json.Unmarshal(raw, &ok); err != nil {
		return false, nil
	}
	return ok, nil
}

// ProductGet implements Client.
func (c *RestClient) ProductGet(ctx context.Context, productID string) (*Product, error) {
	raw, err := c.postJSON(ctx, "crm.product.get", map[string]any{"id": productID})
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := decodeResult(raw, &fields); err != nil {
		return nil, fmt.Errorf("bitrix crm.product.get: parsing result: %w", err)
	}
	return &Product{
		ID:    bxval.Flatten(fields["ID"]),
		XMLID: bxval.Flatten(fields["XML_ID"]),
		Code:  bxval.Flatten(fields["CODE"]),
	}, nil
}

// ListFields implements Client. The remote returns field metadata either as
// a list or as a map keyed by field tag, depending on list configuration.
func (c *RestClient) ListFields(ctx context.Context, listID int) ([]FieldMeta, error) {
	raw, err := c.postJSON(ctx, "lists.field.get", map[string]any{
		"IBLOCK_TYPE_ID": "lists",
		"IBLOCK_ID":      listID,
	})
	if err != nil {
		return nil, err
	}

	var v any
	if err := decodeResult(raw, &v); err != nil {
		return nil, fmt.Errorf("bitrix lists.field.get: parsing result: %w", err)
	}

	switch shaped := v.(type) {
	case []any:
		out := make([]FieldMeta, 0, len(shaped))
		for _, entry := range shaped {
			if m, ok := entry.(map[string]any); ok {
				out = append(out, fieldMetaFrom("", m))
			}
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(shaped))
		for k := range shaped {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]FieldMeta, 0, len(keys))
		for _, k := range keys {
			if m, ok := shaped[k].(map[string]any); ok {
				out = append(out, fieldMetaFrom(k, m))
			}
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("bitrix lists.field.get: unexpected result shape %T", v)
	}
}

func fieldMetaFrom(key string, m map[string]any) FieldMeta {
	tag := bxval.Flatten(m["FIELD_ID"])
	if tag == "" {
		tag = bxval.Flatten(m["ID"])
	}
	if tag == "" {
		tag = key
	}
	return FieldMeta{
		Tag:      tag,
		Code:     bxval.Flatten(m["CODE"]),
		Name:     bxval.Flatten(m["NAME"]),
		Type:     bxval.Flatten(m["TYPE"]),
		Required: isYes(bxval.Flatten(m["IS_REQUIRED"])),
		Multiple: isYes(bxval.Flatten(m["MULTIPLE"])),
	}
}

func isYes(s string) bool {
	switch strings.ToUpper(s) {
	case "Y", "YES", "1", "TRUE":
		return true
	}
	return false
}

// ListElements implements Client. Filter-key spelling is deployment
// dependent, so each known spelling is tried until one returns elements; a
// spelling the remote rejects counts as a failed candidate, not a failure
// of the whole call. Timeouts abort immediately: retrying three more
// spellings through the full backoff cycle would multiply the latency of an
// already-degraded remote.
func (c *RestClient) ListElements(ctx context.Context, q ElementQuery) ([]ListElement, error) {
	selects := []string{"ID", "NAME"}
	selects = append(selects, q.Select...)

	spellings := []string{
		fmt.Sprintf("filter[=%s]", q.FilterTag),
		fmt.Sprintf("filter[%s]", q.FilterTag),
		fmt.Sprintf("FILTER[=%s]", q.FilterTag),
		fmt.Sprintf("FILTER[%s]", q.FilterTag),
	}

	var (
		lastErr   error
		succeeded bool
	)
	for _, key := range spellings {
		form := url.Values{}
		form.Set("IBLOCK_TYPE_ID", "lists")
		form.Set("IBLOCK_ID", strconv.Itoa(q.ListID))
		form.Set(key, q.FilterValue)
		for _, s := range selects {
			form.Add("select[]", s)
		}

		raw, err := c.postForm(ctx, "lists.element.get", form)
		if err != nil {
			if IsTimeout(err) {
				return nil, err
			}
			lastErr = err
			continue
		}
		succeeded = true

		elements, err := decodeElements(raw)
		if err != nil {
			lastErr = err
			continue
		}
		if len(elements) > 0 {
			return elements, nil
		}
	}

	if !succeeded && lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

func decodeElements(raw json.RawMessage) ([]ListElement, error) {
	var items []map[string]any
	if err := decodeResult(raw, &items); err != nil {
		// Single-element responses come back as a bare object on some
		// deployments.
		var single map[string]any
		if err2 := decodeResult(raw, &single); err2 != nil || single == nil {
			return nil, fmt.Errorf("bitrix lists.element.get: parsing result: %w", err)
		}
		return []ListElement{ListElement(single)}, nil
	}

	out := make([]ListElement, 0, len(items))
	for _, item := range items {
		out = append(out, ListElement(item))
	}
	return out, nil
}

// ListElementUpdate implements Client. Both FIELDS and fields keys are
// sent; which one a deployment honors has varied across Bitrix versions.
func (c *RestClient) ListElementUpdate(ctx context.Context, listID int, elementID string, fields map[string]any) (bool, error) {
	raw, err := c.postJSON(ctx, "lists.element.update", map[string]any{
		"IBLOCK_TYPE_ID": "lists",
		"IBLOCK_ID":      listID,
		"ELEMENT_ID":     elementID,
		"FIELDS":         fields,
		"fields":         fields,
	})
	if err != nil {
		return false, err
	}

	var ok bool
	if err := json.Unmarshal(raw, &ok); err != nil {
		// Some deployments answer with the element id instead of true.
		return bxval.Flatten(jsonAny(raw)) != "", nil
	}
	return ok, nil
}

func jsonAny(raw json.RawMessage) any {
	var v any
	if err := decodeResult(raw, &v); err != nil {
		return nil
	}
	return v
}
