package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"watchtower/internal/config"
)

const (
	lawUpdatesDefaultBaseURL = "https://laws.e-gov.go.jp/api/1"
	lawUpdatesLinkURL        = "https://laws.e-gov.go.jp/"
)

// LawUpdates fetches the e-Gov law-update list for the current calendar day.
//
// The upstream API has no native entry ids, so each entry gets a content
// hash over (date, law number, law name, amendment name, enforcement date):
// deterministic within a calendar day, distinct across days. The calendar
// day is taken in loc, the registry's local timezone, not the host's.
type LawUpdates struct {
	client *http.Client
	loc    *time.Location

	// BaseURL is swappable for tests; defaults to the production endpoint.
	BaseURL string
}

func NewLawUpdates(client *http.Client, loc *time.Location) *LawUpdates {
	return &LawUpdates{client: client, loc: loc, BaseURL: lawUpdatesDefaultBaseURL}
}

type lawListResponse struct {
	ApplData struct {
		LawNameListInfo []lawNameInfo `xml:"LawNameListInfo"`
	} `xml:"ApplData"`
}

type lawNameInfo struct {
	LawName          string `xml:"LawName"`
	LawNo            string `xml:"LawNo"`
	AmendName        string `xml:"AmendName"`
	EnforcementDate  string `xml:"EnforcementDate"`
	PromulgationDate string `xml:"PromulgationDate"`
}

func (l *LawUpdates) Fetch(ctx context.Context, t config.Target) ([]Item, error) {
	date := time.Now().In(l.loc).Format("20060102")
	url := fmt.Sprintf("%s/updatelawlists/%s", l.BaseURL, date)

	resp, err := httpGet(ctx, l.client, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	var doc lawListResponse
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: law update list: %v", ErrParse, err)
	}

	items := make([]Item, 0, len(doc.ApplData.LawNameListInfo))
	for _, info := range doc.ApplData.LawNameListInfo {
		name := SafeText(info.LawName)
		no := SafeText(info.LawNo)
		amend := SafeText(info.AmendName)
		enforced := SafeText(info.EnforcementDate)
		promulgated := SafeText(info.PromulgationDate)

		title := name
		if title == "" {
			title = "(unknown law name)"
		}

		parts := make([]string, 0, 4)
		for _, p := range []string{no, amend, labeled("enforced", enforced), labeled("promulgated", promulgated)} {
			if p != "" {
				parts = append(parts, p)
			}
		}

		items = append(items, Item{
			ID:        ContentHash(date, no, name, amend, enforced),
			Title:     title,
			Summary:   summaryText(strings.Join(parts, " / ")),
			URL:       lawUpdatesLinkURL,
			Published: date,
			Source:    "e-Gov Law API",
		})
	}

	if len(items) > t.MaxItems {
		items = items[:t.MaxItems]
	}
	return items, nil
}

func labeled(label, v string) string {
	if v == "" {
		return ""
	}
	return label + ":" + v
}
