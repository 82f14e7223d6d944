package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Jeffail/gabs/v2"
	"github.com/go-resty/resty/v2"

	"github.com/BDNK1/botflow/runtime"
)

// HTTPConfig tunes the client used by api_call and webhook nodes.
type HTTPConfig struct {
	Timeout     time.Duration `yaml:"timeout" default:"30s" validate:"gte=1s"`
	MaxRetries  int           `yaml:"max_retries" default:"2" validate:"gte=0,lte=10"`
	RetryWaitMS int           `yaml:"retry_wait_ms" default:"100" validate:"gte=0,lte=10000"`
	Debug       bool          `yaml:"debug" default:"false"`
}

type httpClient struct {
	client *resty.Client
}

func newHTTPClient(cfg HTTPConfig) *httpClient {
	return &httpClient{
		client: resty.New().
			SetTimeout(cfg.Timeout).
			SetRetryCount(cfg.MaxRetries).
			SetRetryWaitTime(time.Duration(cfg.RetryWaitMS) * time.Millisecond).
			SetDebug(cfg.Debug),
	}
}

// callAPI executes an api_call node. Endpoint, headers, and body values may
// contain {{expression}} templates resolved against the variable scope. The
// parsed response lands in the node's resultVariable (default apiResponse),
// with <resultVariable>_status alongside it for branching on status codes.
func (h *httpClient) callAPI(ctx context.Context, data *runtime.APICallData, variables map[string]any) *runtime.NodeResult {
	endpoint := str(evalValue(data.Endpoint, variables))
	method := strings.ToUpper(data.Method)
	if method == "" {
		method = "GET"
	}

	req := h.client.R().SetContext(ctx)
	for k, v := range data.Headers {
		req.SetHeader(k, str(evalValue(v, variables)))
	}
	if data.Body != nil {
		req.SetBody(evalValue(data.Body, variables))
	}

	resp, err := req.Execute(method, endpoint)
	if err != nil {
		return &runtime.NodeResult{Error: fmt.Sprintf("api_call to %s failed: %v", endpoint, err)}
	}

	resultVar := data.ResultVariable
	if resultVar == "" {
		resultVar = "apiResponse"
	}

	vars := map[string]any{
		resultVar + "_status": resp.StatusCode(),
	}
	if body := resp.Body(); len(body) > 0 {
		if parsed, err := gabs.ParseJSON(body); err == nil {
			vars[resultVar] = parsed.Data()
		} else {
			vars[resultVar] = string(body)
		}
	}

	return &runtime.NodeResult{
		Success:   true,
		Variables: vars,
		Output: map[string]any{
			"type":     "api_call",
			"endpoint": endpoint,
			"status":   resp.StatusCode(),
		},
	}
}

// sendWebhook executes a webhook node: a fire-and-forget POST whose payload
// is template-resolved. A non-2xx response is an execution error.
func (h *httpClient) sendWebhook(ctx context.Context, data *runtime.WebhookData, variables map[string]any) *runtime.NodeResult {
	url := str(evalValue(data.URL, variables))
	method := strings.ToUpper(data.Method)
	if method == "" {
		method = "POST"
	}

	req := h.client.R().SetContext(ctx)
	if data.Payload != nil {
		req.SetBody(evalValue(data.Payload, variables))
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return &runtime.NodeResult{Error: fmt.Sprintf("webhook to %s failed: %v", url, err)}
	}
	if resp.IsError() {
		return &runtime.NodeResult{Error: fmt.Sprintf("webhook to %s returned status %d", url, resp.StatusCode())}
	}

	return &runtime.NodeResult{
		Success: true,
		Output: map[string]any{
			"type":   "webhook",
			"url":    url,
			"status": resp.StatusCode(),
		},
	}
}
