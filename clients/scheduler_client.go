package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// TriggerTimeLayout is the wall-clock format the scheduler expects. The
// scheduler is timezone-naive; the caller formats trigger times in the
// configured reference timezone.
const TriggerTimeLayout = "2006-01-02 15:04:05"

// SchedulerJob is one registration with the external scheduler: fire once at
// TriggerAt, POST to CallbackURL, then discard the job.
type SchedulerJob struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	TriggerAt   string `json:"trigger_at"`
	CallbackURL string `json:"callback_url"`
}

// SchedulerAPI registers future callbacks with the external scheduler.
type SchedulerAPI interface {
	Register(ctx context.Context, job *SchedulerJob) error
}

type SchedulerClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewSchedulerClient(baseURL string, timeout time.Duration) *SchedulerClient {
	return &SchedulerClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *SchedulerClient) Register(ctx context.Context, job *SchedulerJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scheduler", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return upstreamError("scheduler", resp)
	}
	return nil
}
