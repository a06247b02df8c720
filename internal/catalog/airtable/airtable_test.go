package airtable

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crimson-sun/emoshop/internal/catalog"
	"github.com/crimson-sun/emoshop/internal/catalog/httpclient"
)

func TestNew_MissingCredentials(t *testing.T) {
	tests := []struct {
		name  string
		cfg   catalog.SourceConfig
		field string
	}{
		{"no api key", catalog.SourceConfig{BaseID: "app1"}, "api_key"},
		{"no base id", catalog.SourceConfig{APIKey: "key"}, "base_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			var ce *catalog.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *ConfigError, got %v", err)
			}
			if ce.Field != tt.field {
				t.Fatalf("field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

func TestFetchPage_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v0/appXYZ/productss" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer pat-1" {
			t.Errorf("unexpected auth: %s", r.Header.Get("Authorization"))
		}
		if r.URL.Query().Get("pageSize") != "100" {
			t.Errorf("pageSize = %q", r.URL.Query().Get("pageSize"))
		}
		if r.URL.Query().Get("offset") != "itr/2" {
			t.Errorf("offset = %q", r.URL.Query().Get("offset"))
		}
		w.Write([]byte(`{"records":[
			{"id":"rec1","fields":{"productDisplayName":"Red Shirt","price":1200,"baseColour":"Red"}},
			{"id":"rec2","fields":"oops"},
			42
		],"offset":"itr/3"}`))
	}))
	defer srv.Close()

	s, err := New(catalog.SourceConfig{APIKey: "pat-1", BaseID: "appXYZ", Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	page, err := s.FetchPage(context.Background(), catalog.PageRequest{PageSize: 100, Token: "itr/2"})
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if page.Next != "itr/3" {
		t.Fatalf("Next = %q", page.Next)
	}
	if len(page.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(page.Records))
	}
	r := page.Records[0]
	if r.ID != "rec1" || r.Source != "airtable" || r.Fields["productDisplayName"] != "Red Shirt" {
		t.Fatalf("unexpected record: %+v", r)
	}
	if page.Records[1].ID != "rec2" || page.Records[1].Fields != nil {
		t.Fatalf("non-object fields should be nil: %+v", page.Records[1])
	}
	if page.Records[2].Fields != nil {
		t.Fatalf("non-object record should be nil: %+v", page.Records[2])
	}
}

func TestFetchPage_ClampsPageSize(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query().Get("pageSize")
		w.Write([]byte(`{"records":[]}`))
	}))
	defer srv.Close()

	s, _ := New(catalog.SourceConfig{APIKey: "k", BaseID: "b", Table: "products", Endpoint: srv.URL})
	if _, err := s.FetchPage(context.Background(), catalog.PageRequest{PageSize: 500}); err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if got != "100" {
		t.Fatalf("pageSize = %q, want 100", got)
	}
	if n := catalog.MaxPageSize(s); n != 100 {
		t.Fatalf("MaxPageSize = %d, want 100", n)
	}
}

func TestFetchPage_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"AUTHENTICATION_REQUIRED"}`))
	}))
	defer srv.Close()

	s, _ := New(catalog.SourceConfig{APIKey: "bad", BaseID: "b", Endpoint: srv.URL})
	_, err := s.FetchPage(context.Background(), catalog.PageRequest{})
	var apiErr *httpclient.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 401 {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if catalog.IsTemporary(err) {
		t.Fatal("401 must not be temporary")
	}
}

func TestRegistered(t *testing.T) {
	if _, err := catalog.Get("airtable"); err != nil {
		t.Fatalf("airtable not registered: %v", err)
	}
}
