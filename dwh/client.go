// Package dwh pulls changed records from the external data warehouse.
package dwh

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"goflare.io/loyalty/models"
)

type RecordKind string

const (
	RecordKindDiscount   RecordKind = "discount"
	RecordKindShopkeeper RecordKind = "shopkeeper"
)

// ChangedRecord is one record from the warehouse change feed. Marker is a
// monotonically increasing sequence id; the feed is requested with
// "marker strictly greater than X".
type ChangedRecord struct {
	Marker     int64              `json:"marker"`
	Kind       RecordKind         `json:"kind"`
	Discount   *models.Discount   `json:"discount,omitempty"`
	Shopkeeper *models.Shopkeeper `json:"shopkeeper,omitempty"`
}

type Client interface {
	// ChangesSince returns all records with a marker strictly greater than
	// after, in ascending marker order.
	ChangesSince(ctx context.Context, after int64) ([]ChangedRecord, error)
}

type httpClient struct {
	baseURL     string
	accessToken string
	client      *http.Client
	logger      *zap.Logger
}

func NewHTTPClient(baseURL, accessToken string, logger *zap.Logger) Client {
	return &httpClient{
		baseURL:     baseURL,
		accessToken: accessToken,
		client:      &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}
}

func (c *httpClient) ChangesSince(ctx context.Context, after int64) ([]ChangedRecord, error) {

	endpoint, err := url.Parse(c.baseURL + "/api/changes")
	if err != nil {
		return nil, fmt.Errorf("failed to build dwh url: %w", err)
	}

	params := endpoint.Query()
	params.Set("after", strconv.FormatInt(after, 10))
	params.Set("accessToken", c.accessToken)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build dwh request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach dwh: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dwh returned status %d", resp.StatusCode)
	}

	var records []ChangedRecord
	if err = json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode dwh response: %w", err)
	}

	// The feed promises ascending markers; enforce it so the cursor only
	// ever advances monotonically.
	sort.Slice(records, func(i, j int) bool {
		return records[i].Marker < records[j].Marker
	})

	c.logger.Debug("fetched dwh changes",
		zap.Int64("after", after),
		zap.Int("count", len(records)))

	return records, nil
}
