package ndjson

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/crimson-sun/emoshop/internal/catalog"
	"github.com/crimson-sun/emoshop/internal/model"
)

func init() {
	catalog.Register("ndjson", func(cfg catalog.SourceConfig) (catalog.Source, error) {
		return New(cfg)
	})
}

// Source serves products from a local NDJSON or CSV file. The file is
// re-read on the first page of every load so edits are picked up; the
// continuation token is the decimal row offset of the next page.
type Source struct {
	path string
	rows []model.RawRecord
}

// New builds a Source over cfg.Path.
func New(cfg catalog.SourceConfig) (*Source, error) {
	if cfg.Path == "" {
		return nil, &catalog.ConfigError{Provider: "ndjson", Field: "path"}
	}
	return &Source{path: cfg.Path}, nil
}

func (s *Source) FetchPage(ctx context.Context, req catalog.PageRequest) (catalog.Page, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Page{}, err
	}
	offset := 0
	if req.Token == "" || s.rows == nil {
		rows, err := ReadFile(s.path)
		if err != nil {
			return catalog.Page{}, fmt.Errorf("ndjson source: %w", err)
		}
		s.rows = rows
	}
	if req.Token != "" {
		n, err := strconv.Atoi(req.Token)
		if err != nil || n < 0 {
			return catalog.Page{}, fmt.Errorf("ndjson source: invalid token %q", req.Token)
		}
		offset = n
	}
	if offset > len(s.rows) {
		offset = len(s.rows)
	}

	end := len(s.rows)
	if req.PageSize > 0 && offset+req.PageSize < end {
		end = offset + req.PageSize
	}
	page := catalog.Page{Records: s.rows[offset:end]}
	if end < len(s.rows) {
		page.Next = strconv.Itoa(end)
	}
	return page, nil
}

// ReadFile parses path as CSV (by extension) or NDJSON.
func ReadFile(path string) ([]model.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(f)
	default:
		return readNDJSON(f)
	}
}

func readCSV(r io.Reader) ([]model.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	headers := rows[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	out := make([]model.RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		fields := make(map[string]any, len(headers))
		for i, h := range headers {
			if i < len(row) && h != "" {
				fields[h] = strings.TrimSpace(row[i])
			}
		}
		out = append(out, model.RawRecord{Source: "ndjson", Fields: fields})
	}
	return out, nil
}

func readNDJSON(r io.Reader) ([]model.RawRecord, error) {
	var out []model.RawRecord
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		rec := model.RawRecord{Source: "ndjson"}
		if line[0] == '{' {
			var fields map[string]any
			if err := json.Unmarshal(line, &fields); err == nil {
				rec.Fields = fields
			}
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
