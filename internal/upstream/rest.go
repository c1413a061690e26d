package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aquagrid/approval-engine/internal/domain"
	"github.com/aquagrid/approval-engine/internal/ratelimiter"
)

// collectionPaths maps cache partitions onto backend list endpoints.
var collectionPaths = map[string]string{
	PartitionConsumption: "/api/consumptions",
	PartitionZoneScoring: "/api/zone-scorings",
	PartitionUsers:       "/api/users",
	PartitionAdmins:      "/api/admins",
	PartitionAreas:       "/api/areas",
	PartitionZones:       "/api/zones",
	PartitionMeters:      "/api/meters",
}

// RESTClient talks to the billing backend over HTTP. The base URL is
// injected from config so tests can point to a local httptest server.
type RESTClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimiter.CollectionLimiters
}

func NewRESTClient(baseURL string, timeout time.Duration, limiter *ratelimiter.CollectionLimiters) *RESTClient {
	return &RESTClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: limiter,
	}
}

func (c *RESTClient) FetchCollection(ctx context.Context, partition string) ([]domain.Record, error) {
	path, ok := collectionPaths[partition]
	if !ok {
		return nil, fmt.Errorf("unknown collection partition %q", partition)
	}
	var records []domain.Record
	if err := c.do(ctx, partition, http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *RESTClient) GetConsumption(ctx context.Context, id int64) (domain.Record, error) {
	var rec domain.Record
	path := collectionPaths[PartitionConsumption] + "/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, PartitionConsumption, http.MethodGet, path, nil, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (c *RESTClient) ApproveConsumption(ctx context.Context, id int64, approvedBy, comments string) error {
	path := fmt.Sprintf("%s/%d/approve", collectionPaths[PartitionConsumption], id)
	body := map[string]string{"approvedBy": approvedBy, "comments": comments}
	return c.do(ctx, PartitionConsumption, http.MethodPost, path, body, nil)
}

func (c *RESTClient) RejectConsumption(ctx context.Context, id int64, approvedBy, comments string) error {
	path := fmt.Sprintf("%s/%d/reject", collectionPaths[PartitionConsumption], id)
	body := map[string]string{"approvedBy": approvedBy, "comments": comments}
	return c.do(ctx, PartitionConsumption, http.MethodPost, path, body, nil)
}

func (c *RESTClient) GetRuleset(ctx context.Context, id int64) (domain.Record, error) {
	var rec domain.Record
	path := collectionPaths[PartitionZoneScoring] + "/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, PartitionZoneScoring, http.MethodGet, path, nil, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (c *RESTClient) PublishRuleset(ctx context.Context, id int64) error {
	path := fmt.Sprintf("%s/%d/publish", collectionPaths[PartitionZoneScoring], id)
	return c.do(ctx, PartitionZoneScoring, http.MethodPost, path, nil, nil)
}

func (c *RESTClient) UpdateRulesetStatus(ctx context.Context, id int64, status string) error {
	path := fmt.Sprintf("%s/%d/status", collectionPaths[PartitionZoneScoring], id)
	return c.do(ctx, PartitionZoneScoring, http.MethodPatch, path, map[string]string{"status": status}, nil)
}

func (c *RESTClient) GetUserByAccount(ctx context.Context, account string) (domain.Record, error) {
	var rec domain.Record
	path := collectionPaths[PartitionUsers] + "/by-account/" + url.PathEscape(account)
	if err := c.do(ctx, PartitionUsers, http.MethodGet, path, nil, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (c *RESTClient) UpdateUserStatus(ctx context.Context, account, status string) error {
	path := collectionPaths[PartitionUsers] + "/" + url.PathEscape(account) + "/status"
	return c.do(ctx, PartitionUsers, http.MethodPatch, path, map[string]string{"status": status}, nil)
}

// do executes one backend call: wait for the partition's rate-limit
// token, issue the request, and decode either the result or the
// backend's error body.
func (c *RESTClient) do(ctx context.Context, partition, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, partition); err != nil {
			return err
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// readErrorMessage extracts {"error": "..."} or {"message": "..."} from
// an error body, falling back to the raw text.
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &envelope) == nil {
		if envelope.Error != "" {
			return envelope.Error
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return string(raw)
}

// compile-time check that RESTClient implements Client
var _ Client = (*RESTClient)(nil)
