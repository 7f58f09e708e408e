package clients

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// CartAPI is the slice of the cart service this pipeline needs: removing
// lines that were turned into an order.
type CartAPI interface {
	DeleteLine(ctx context.Context, lineID string) error
}

type CartClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewCartClient(baseURL string, timeout time.Duration) *CartClient {
	return &CartClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *CartClient) DeleteLine(ctx context.Context, lineID string) error {
	url := fmt.Sprintf("%s/carts/%s", c.baseURL, lineID)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// A line that is already gone is as good as deleted.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return upstreamError("cart service", resp)
	}
	return nil
}
