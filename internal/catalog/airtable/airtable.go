package airtable

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/crimson-sun/emoshop/internal/catalog"
	"github.com/crimson-sun/emoshop/internal/catalog/httpclient"
	"github.com/crimson-sun/emoshop/internal/model"
)

const (
	defaultEndpoint = "https://api.airtable.com"
	defaultTable    = "productss"
	maxPageSize     = 100
)

func init() {
	catalog.Register("airtable", func(cfg catalog.SourceConfig) (catalog.Source, error) {
		return New(cfg)
	})
}

// Source reads product rows from an Airtable base through the REST list
// records endpoint, following the "offset" continuation token.
type Source struct {
	client *httpclient.Client
	path   string
}

type listResponse struct {
	Records []json.RawMessage `json:"records"`
	Offset  string            `json:"offset"`
}

type record struct {
	ID     string          `json:"id"`
	Fields json.RawMessage `json:"fields"`
}

// New validates cfg and builds a Source. A missing API key or base id is a
// *catalog.ConfigError and no request is made.
func New(cfg catalog.SourceConfig) (*Source, error) {
	if cfg.APIKey == "" {
		return nil, &catalog.ConfigError{Provider: "airtable", Field: "api_key"}
	}
	if cfg.BaseID == "" {
		return nil, &catalog.ConfigError{Provider: "airtable", Field: "base_id"}
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	table := cfg.Table
	if table == "" {
		table = defaultTable
	}
	return &Source{
		client: httpclient.New(endpoint, cfg.APIKey, httpclient.WithTimeout(cfg.Timeout)),
		path:   "/v0/" + url.PathEscape(cfg.BaseID) + "/" + url.PathEscape(table),
	}, nil
}

// FetchPage lists one page of records. Sizes above the API maximum of 100
// are clamped; the returned Next is Airtable's offset token.
func (s *Source) FetchPage(ctx context.Context, req catalog.PageRequest) (catalog.Page, error) {
	size := req.PageSize
	if size <= 0 || size > maxPageSize {
		size = maxPageSize
	}
	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(size))
	if req.Token != "" {
		q.Set("offset", req.Token)
	}

	var resp listResponse
	if err := s.client.GetJSON(ctx, s.path, q, &resp); err != nil {
		return catalog.Page{}, fmt.Errorf("airtable source: %w", err)
	}

	page := catalog.Page{Next: resp.Offset, Records: make([]model.RawRecord, 0, len(resp.Records))}
	for _, raw := range resp.Records {
		page.Records = append(page.Records, toRawRecord(raw))
	}
	return page, nil
}

// MaxPageSize reports the list endpoint's page size cap.
func (s *Source) MaxPageSize() int { return maxPageSize }

// toRawRecord decodes one list entry. Entries that are not objects, or whose
// fields are not an object, yield a record with nil Fields for the loader to
// reject.
func toRawRecord(raw json.RawMessage) model.RawRecord {
	out := model.RawRecord{Source: "airtable"}
	if !isObject(raw) {
		return out
	}
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return out
	}
	out.ID = r.ID
	if !isObject(r.Fields) {
		return out
	}
	var fields map[string]any
	if err := json.Unmarshal(r.Fields, &fields); err == nil {
		out.Fields = fields
	}
	return out
}

func isObject(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}
