package edgar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var companyIndexRe = regexp.MustCompile(`(?i)^company[^/]*\.idx$`)

// Quarter identifies one calendar quarter of the index tree.
type Quarter struct {
	Year    int
	Quarter int
}

// QuarterRange returns every quarter from Q1 of from through Q4 of to.
func QuarterRange(from, to int) []Quarter {
	if to < from {
		return nil
	}
	out := make([]Quarter, 0, (to-from+1)*4)
	for y := from; y <= to; y++ {
		for q := 1; q <= 4; q++ {
			out = append(out, Quarter{Year: y, Quarter: q})
		}
	}
	return out
}

func (q Quarter) String() string {
	return fmt.Sprintf("%d/QTR%d", q.Year, q.Quarter)
}

// ListIndexFiles returns absolute URLs of the company index files published
// for a quarter, in directory order. A quarter that does not exist yet
// yields no URLs and no error.
func (c *Client) ListIndexFiles(ctx context.Context, year, quarter int) ([]string, error) {
	dir, err := url.Parse(strings.TrimSuffix(c.baseURL, "/") + "/" + Quarter{Year: year, Quarter: quarter}.String() + "/")
	if err != nil {
		return nil, fmt.Errorf("building listing url: %w", err)
	}

	body, err := c.Fetch(ctx, dir.String())
	if errors.Is(err, ErrNotFound) {
		c.logger.Info("quarter not published", "year", year, "quarter", quarter)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	links, err := CompanyIndexLinks(dir, body)
	if err != nil {
		return nil, fmt.Errorf("parsing listing %s: %w", dir, err)
	}
	c.logger.Debug("listed quarter", "year", year, "quarter", quarter, "files", len(links))
	return links, nil
}

// ListRange lists the company index files of every quarter in the year range.
func (c *Client) ListRange(ctx context.Context, from, to int) ([]string, error) {
	var all []string
	for _, q := range QuarterRange(from, to) {
		links, err := c.ListIndexFiles(ctx, q.Year, q.Quarter)
		if err != nil {
			return all, err
		}
		all = append(all, links...)
	}
	return all, nil
}

// CompanyIndexLinks extracts the company*.idx anchors of a directory page and
// resolves them against base. Duplicates are dropped.
func CompanyIndexLinks(base *url.URL, page []byte) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	var links []string
	seen := make(map[string]struct{})
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				ref, err := url.Parse(strings.TrimSpace(attr.Val))
				if err != nil || !companyIndexRe.MatchString(path.Base(ref.Path)) {
					continue
				}
				abs := base.ResolveReference(ref).String()
				if _, dup := seen[abs]; !dup {
					seen[abs] = struct{}{}
					links = append(links, abs)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return links, nil
}
