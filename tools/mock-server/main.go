// Package main implements a mock Bitrix24 REST portal for local development.
// It serves the handful of methods b24-dealsync calls over an outgoing
// webhook URL (/rest/<user>/<token>/<method>) from an in-memory portal
// state, so the service can be exercised without a real portal.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// portalState is the mutable in-memory portal. Deals and list elements are
// updated by crm.deal.update and lists.element.update.
type portalState struct {
	mu       sync.Mutex
	Deals    map[string]map[string]any   `json:"deals"`
	Rows     map[string][]map[string]any `json:"product_rows"`
	Products map[string]map[string]any   `json:"products"`
	Fields   []map[string]any            `json:"list_fields"`
	Elements []map[string]any            `json:"elements"`
}

func defaultState() *portalState {
	return &portalState{
		Deals: map[string]map[string]any{
			"301": {
				"ID":                "301",
				"TITLE":             "Поставка серверов",
				"UF_CRM_1755600973": "2025-09-15",
				"MODIFY_BY_ID":      "99",
				"DATE_MODIFY":       "2025-08-01T10:00:00+03:00",
			},
		},
		Rows: map[string][]map[string]any{
			"301": {{"PRODUCT_ID": 451, "QUANTITY": 2}},
		},
		Products: map[string]map[string]any{
			"451": {"ID": "451", "NAME": "Сервер", "XML_ID": "SKU-451", "CODE": "sku_451"},
		},
		Fields: []map[string]any{
			{"FIELD_ID": "NAME", "NAME": "Название", "TYPE": "S", "IS_REQUIRED": "Y"},
			{"FIELD_ID": "PROPERTY_204", "CODE": "PRODUCT", "NAME": "Товар", "TYPE": "S", "IS_REQUIRED": "Y"},
			{"FIELD_ID": "PROPERTY_202", "CODE": "SHIP_DATE", "NAME": "Дата поставки", "TYPE": "S:Date"},
		},
		Elements: []map[string]any{
			{
				"ID":           "9",
				"NAME":         "Поставка 451",
				"PROPERTY_204": map[string]any{"1616": "451"},
				"PROPERTY_202": map[string]any{"1617": "31.08.2025"},
			},
		},
	}
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureFile := flag.String("fixture", "", "optional JSON file overriding the built-in portal state")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	state := defaultState()
	if *fixtureFile != "" {
		loaded, err := loadFixture(*fixtureFile)
		if err != nil {
			logger.Error("failed to load fixture", "path", *fixtureFile, "error", err)
			os.Exit(1)
		}
		state = loaded
	}
	logger.Info("portal state ready",
		"deals", len(state.Deals),
		"elements", len(state.Elements),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /rest/{user}/{token}/{method...}", restHandler(logger, state))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock Bitrix portal", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func loadFixture(path string) (*portalState, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var state portalState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return &state, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// params merges the JSON body and form fields into one lookup, since the
// real client sends crm.* methods as JSON and lists.element.get as a form.
type params struct {
	body map[string]any
	form map[string][]string
}

func parseParams(r *http.Request) *params {
	p := &params{body: map[string]any{}}
	ct := r.Header.Get("Content-Type")
	if strings.Contains(ct, "application/json") {
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		//nolint:errcheck // malformed bodies just yield empty params
		dec.Decode(&p.body)
		return p
	}
	//nolint:errcheck // malformed bodies just yield empty params
	r.ParseForm()
	p.form = r.PostForm
	return p
}

func (p *params) str(key string) string {
	if v, ok := p.body[key]; ok {
		return fmt.Sprint(v)
	}
	if p.form != nil {
		if vs := p.form[key]; len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

// filter scans form keys for the filter spellings the client probes
// (filter[=TAG], filter[TAG], FILTER[=TAG], FILTER[TAG]).
func (p *params) filter() (tag, value string, ok bool) {
	for key, vs := range p.form {
		lower := strings.ToLower(key)
		if !strings.HasPrefix(lower, "filter[") || !strings.HasSuffix(key, "]") || len(vs) == 0 {
			continue
		}
		tag = strings.TrimPrefix(key[len("filter["):len(key)-1], "=")
		return tag, vs[0], true
	}
	return "", "", false
}

func restHandler(logger *slog.Logger, state *portalState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		method := strings.TrimSuffix(r.PathValue("method"), ".json")
		p := parseParams(r)

		state.mu.Lock()
		defer state.mu.Unlock()

		switch method {
		case "crm.deal.productrows.get":
			writeResult(w, orEmpty(state.Rows[p.str("id")]))
		case "crm.deal.get":
			deal, ok := state.Deals[p.str("id")]
			if !ok {
				writeError(w, "NOT_FOUND", "deal not found")
				return
			}
			writeResult(w, deal)
		case "crm.deal.update":
			updateDeal(w, state, r.PathValue("user"), p)
		case "crm.product.get":
			product, ok := state.Products[p.str("id")]
			if !ok {
				writeError(w, "NOT_FOUND", "product not found")
				return
			}
			writeResult(w, product)
		case "lists.field.get":
			writeResult(w, state.Fields)
		case "lists.element.get":
			listElements(w, state, p)
		case "lists.element.update":
			updateElement(w, state, p)
		default:
			logger.Warn("unknown method", "method", method)
			writeError(w, "ERROR_METHOD_NOT_FOUND", "method not found: "+method)
		}
	}
}

func updateDeal(w http.ResponseWriter, state *portalState, user string, p *params) {
	deal, ok := state.Deals[p.str("id")]
	if !ok {
		writeError(w, "NOT_FOUND", "deal not found")
		return
	}
	fields, _ := p.body["fields"].(map[string]any)
	for k, v := range fields {
		deal[k] = v
	}
	deal["MODIFY_BY_ID"] = user
	deal["DATE_MODIFY"] = time.Now().Format(time.RFC3339)
	writeResult(w, true)
}

func listElements(w http.ResponseWriter, state *portalState, p *params) {
	tag, value, ok := p.filter()
	if !ok {
		writeResult(w, state.Elements)
		return
	}

	var matched []map[string]any
	for _, el := range state.Elements {
		if propMatches(el[tag], value) {
			matched = append(matched, el)
		}
	}
	writeResult(w, orEmpty(matched))
}

// propMatches compares a stored property against a filter value, looking
// through the associative-map envelope real portals wrap values in.
func propMatches(prop any, value string) bool {
	switch v := prop.(type) {
	case nil:
		return false
	case map[string]any:
		for _, inner := range v {
			if fmt.Sprint(inner) == value {
				return true
			}
		}
		return false
	default:
		return fmt.Sprint(v) == value
	}
}

func updateElement(w http.ResponseWriter, state *portalState, p *params) {
	elementID := p.str("ELEMENT_ID")
	fields, _ := p.body["FIELDS"].(map[string]any)
	if fields == nil {
		fields, _ = p.body["fields"].(map[string]any)
	}

	for _, el := range state.Elements {
		if fmt.Sprint(el["ID"]) != elementID {
			continue
		}
		for k, v := range fields {
			el[k] = v
		}
		writeResult(w, true)
		return
	}
	writeError(w, "ERROR_ELEMENT_NOT_FOUND", "element not found: "+elementID)
}

func orEmpty(items []map[string]any) []map[string]any {
	if items == nil {
		return []map[string]any{}
	}
	return items
}

func writeResult(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(map[string]any{"result": result})
}

func writeError(w http.ResponseWriter, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(map[string]any{
		"error":             code,
		"error_description": description,
	})
}
