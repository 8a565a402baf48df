package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"watchtower/internal/config"
)

const (
	grantsDefaultBaseURL = "https://api.jgrants-portal.go.jp/exp/v1/public"
	grantsPortalURL      = "https://www.jgrants-portal.go.jp/subsidy/"
)

// Grants queries the jGrants public subsidy listing, one request per
// configured keyword. Rows are merged by provider id (a subsidy matching
// several keywords collapses to one item, last keyword's row wins), sorted
// by acceptance-end ascending with empty timestamps first, then truncated.
type Grants struct {
	client *http.Client

	// BaseURL is swappable for tests; defaults to the production endpoint.
	BaseURL string
}

func NewGrants(client *http.Client) *Grants {
	return &Grants{client: client, BaseURL: grantsDefaultBaseURL}
}

type grantRow struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Name            string      `json:"name"`
	TargetArea      string      `json:"target_area_search"`
	SubsidyMaxLimit json.Number `json:"subsidy_max_limit"`
	AcceptanceStart string      `json:"acceptance_start_datetime"`
	AcceptanceEnd   string      `json:"acceptance_end_datetime"`
}

type grantsResponse struct {
	Result []grantRow `json:"result"`
}

func (g *Grants) Fetch(ctx context.Context, t config.Target) ([]Item, error) {
	merged := map[string]grantRow{}
	for _, kw := range t.Keywords {
		rows, err := g.query(ctx, kw, t)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			id := SafeText(row.ID)
			if id == "" {
				continue
			}
			row.ID = id
			merged[id] = row
		}
	}

	rows := make([]grantRow, 0, len(merged))
	for _, row := range merged {
		rows = append(rows, row)
	}
	// Earliest deadline first; empty end timestamps sort before everything.
	// Secondary id ordering keeps the result stable across map iteration.
	sort.Slice(rows, func(i, j int) bool {
		ei, ej := SafeText(rows[i].AcceptanceEnd), SafeText(rows[j].AcceptanceEnd)
		if ei != ej {
			return ei < ej
		}
		return rows[i].ID < rows[j].ID
	})
	if len(rows) > t.MaxItems {
		rows = rows[:t.MaxItems]
	}

	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		title := SafeText(row.Title)
		if title == "" {
			title = SafeText(row.Name)
		}
		if title == "" {
			title = "(subsidy)"
		}
		start := SafeText(row.AcceptanceStart)
		end := SafeText(row.AcceptanceEnd)
		published := end
		if published == "" {
			published = start
		}
		summary := fmt.Sprintf("area:%s / max:%s / period:%s -> %s",
			SafeText(row.TargetArea), row.SubsidyMaxLimit.String(), start, end)

		items = append(items, Item{
			ID:        row.ID,
			Title:     title,
			Summary:   summaryText(summary),
			URL:       grantsPortalURL + row.ID,
			Published: published,
			Source:    "jGrants API",
		})
	}
	return items, nil
}

func (g *Grants) query(ctx context.Context, keyword string, t config.Target) ([]grantRow, error) {
	q := url.Values{}
	q.Set("keyword", keyword)
	q.Set("sort", t.Sort)
	q.Set("order", t.Order)
	q.Set("acceptance", t.Acceptance)

	resp, err := httpGet(ctx, g.client, g.BaseURL+"/subsidies?"+q.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out grantsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: subsidies for %q: %v", ErrParse, keyword, err)
	}
	return out.Result, nil
}
