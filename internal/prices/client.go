package prices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/amishk599/priceask/internal/model"
)

// DefaultBaseURL is the public hvakosterstrommen.no price API.
const DefaultBaseURL = "https://www.hvakosterstrommen.no/api/v1/prices"

// Client fetches day-ahead spot prices from hvakosterstrommen.no.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client rooted at baseURL.
func NewClient(baseURL string, client *http.Client) *Client {
	return &Client{
		baseURL: baseURL,
		client:  client,
	}
}

// DayURL returns the document URL for one day and region,
// e.g. <base>/2026/10-18_NO1.json.
func (c *Client) DayURL(date time.Time, region string) string {
	return fmt.Sprintf("%s/%d/%s_%s.json", c.baseURL, date.Year(), date.Format("01-02"), region)
}

// FetchDay retrieves all price points for date in region. A day that is not
// yet published comes back as a *model.HTTPError with status 404.
func (c *Client) FetchDay(ctx context.Context, date time.Time, region string) ([]model.PricePoint, error) {
	url := c.DayURL(date, region)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("price fetch for %s %s: %w", region, model.DateKey(date), err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price fetch for %s %s: %w", region, model.DateKey(date), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: model.ParseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("price fetch for %s %s: %s", region, model.DateKey(date), string(body)),
		}
	}

	var points []model.PricePoint
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
		return nil, fmt.Errorf("price fetch for %s %s: decode: %w", region, model.DateKey(date), err)
	}

	return points, nil
}

// IsNotPublished reports whether err means the requested day has no prices yet.
func IsNotPublished(err error) bool {
	var httpErr *model.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}
