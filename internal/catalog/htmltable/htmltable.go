package htmltable

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/crimson-sun/emoshop/internal/catalog"
	"github.com/crimson-sun/emoshop/internal/catalog/httpclient"
	"github.com/crimson-sun/emoshop/internal/model"
)

const defaultSelector = "table"

func init() {
	catalog.Register("htmltable", func(cfg catalog.SourceConfig) (catalog.Source, error) {
		return New(cfg)
	})
}

// Source scrapes products from an HTML table export. The header row names
// the fields; a rel="next" link names the following page. The server decides
// the page size.
type Source struct {
	client   *httpclient.Client
	start    string
	selector string
}

// New builds a Source reading from cfg.Endpoint. Extra["selector"] overrides
// the table selector.
func New(cfg catalog.SourceConfig) (*Source, error) {
	if cfg.Endpoint == "" {
		return nil, &catalog.ConfigError{Provider: "htmltable", Field: "endpoint"}
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("htmltable source: endpoint must be an absolute URL: %q", cfg.Endpoint)
	}
	sel := cfg.Extra["selector"]
	if sel == "" {
		sel = defaultSelector
	}
	return &Source{
		client:   httpclient.New("", cfg.APIKey, httpclient.WithTimeout(cfg.Timeout)),
		start:    cfg.Endpoint,
		selector: sel,
	}, nil
}

func (s *Source) FetchPage(ctx context.Context, req catalog.PageRequest) (catalog.Page, error) {
	target := s.start
	if req.Token != "" {
		target = req.Token
	}
	body, contentType, err := s.client.GetRaw(ctx, target)
	if err != nil {
		return catalog.Page{}, fmt.Errorf("htmltable source: %w", err)
	}
	page, err := parse(body, contentType, s.selector)
	if err != nil {
		return catalog.Page{}, fmt.Errorf("htmltable source: %w", err)
	}
	if page.Next != "" {
		page.Next = resolve(target, page.Next)
	}
	return page, nil
}

func parse(data []byte, contentType, selector string) (catalog.Page, error) {
	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		if !utf8.Valid(data) {
			return catalog.Page{}, err
		}
		utf8data = data
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
	if err != nil {
		return catalog.Page{}, err
	}

	table := doc.Find(selector).First()
	if table.Length() == 0 {
		return catalog.Page{}, fmt.Errorf("no element matches %q", selector)
	}

	var headers []string
	table.Find("tr").First().Find("th,td").Each(func(_ int, c *goquery.Selection) {
		headers = append(headers, strings.TrimSpace(c.Text()))
	})

	var page catalog.Page
	table.Find("tr").Slice(1, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
		rec := model.RawRecord{Source: "htmltable", ID: row.AttrOr("data-id", "")}
		fields := make(map[string]any, len(headers))
		row.Find("td").Each(func(i int, c *goquery.Selection) {
			if i >= len(headers) || headers[i] == "" {
				return
			}
			fields[headers[i]] = cellValue(c)
		})
		if len(fields) > 0 {
			rec.Fields = fields
		}
		page.Records = append(page.Records, rec)
	})

	next := doc.Find(`a[rel="next"],link[rel="next"]`).First()
	page.Next = strings.TrimSpace(next.AttrOr("href", ""))
	return page, nil
}

// cellValue prefers an explicit data-value, then an image or link target,
// then the visible text.
func cellValue(c *goquery.Selection) string {
	if v, ok := c.Attr("data-value"); ok {
		return strings.TrimSpace(v)
	}
	if src, ok := c.Find("img").First().Attr("src"); ok {
		return strings.TrimSpace(src)
	}
	text := strings.TrimSpace(c.Text())
	if text == "" {
		if href, ok := c.Find("a").First().Attr("href"); ok {
			return strings.TrimSpace(href)
		}
	}
	return text
}

func resolve(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
