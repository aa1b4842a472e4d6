package store

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/safar/go-storefront/internal/models"
)

type CursorPage struct {
	Items      []models.Order `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more"`
}

type OffsetPage struct {
	Items      []models.Product `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// productPage is the cached form of a product listing.
type productPage struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
}

func (p productPage) offsetPage(filter ProductFilter) *OffsetPage {
	page := &OffsetPage{
		Items:    p.Products,
		Total:    p.Total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}

	if filter.PageSize > 0 {
		page.TotalPages = int(p.Total) / filter.PageSize
		if int(p.Total)%filter.PageSize > 0 {
			page.TotalPages++
		}
	} else {
		page.Page = 1
		page.PageSize = len(p.Products)
		if p.Total > 0 {
			page.TotalPages = 1
		}
	}

	return page
}

type OrderCursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        int64     `json:"id"`
}

func EncodeCursor(cursor OrderCursor) string {
	data, err := json.Marshal(cursor)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeCursor parses a cursor produced by EncodeCursor. The empty string
// decodes to nil, meaning "start from the newest order".
func DecodeCursor(encoded string) (*OrderCursor, error) {
	if encoded == "" {
		return nil, nil
	}

	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}

	var cursor OrderCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, err
	}
	return &cursor, nil
}
