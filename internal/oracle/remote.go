package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultRemoteTimeout = 30 * time.Second
	maxErrorBodyBytes    = 4096
)

// Remote calls a model hosted behind the TensorFlow Serving REST API.
// The window is sent one-hot encoded, shape [1][len(window)][vocabSize],
// which is the input layout of the Keras melody models.
type Remote struct {
	baseURL   string
	model     string
	vocabSize int
	client    *http.Client
}

func NewRemote(baseURL, model string, vocabSize int, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	return &Remote{
		baseURL:   strings.TrimRight(baseURL, "/"),
		model:     model,
		vocabSize: vocabSize,
		client:    &http.Client{Timeout: timeout},
	}
}

type predictRequest struct {
	Instances [][][]float32 `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
	Error       string      `json:"error,omitempty"`
}

func (r *Remote) Predict(ctx context.Context, window []int) ([]float64, error) {
	instance := make([][]float32, len(window))
	for i, id := range window {
		if id < 0 || id >= r.vocabSize {
			return nil, fmt.Errorf("id %d at window position %d outside vocabulary of %d", id, i, r.vocabSize)
		}
		row := make([]float32, r.vocabSize)
		row[id] = 1
		instance[i] = row
	}

	body, err := json.Marshal(predictRequest{Instances: [][][]float32{instance}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, fmt.Errorf("model server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode predict response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("model server error: %s", out.Error)
	}
	if len(out.Predictions) != 1 {
		return nil, fmt.Errorf("expected 1 prediction, got %d", len(out.Predictions))
	}
	return out.Predictions[0], nil
}

func (r *Remote) endpoint() string {
	return fmt.Sprintf("%s/v1/models/%s:predict", r.baseURL, r.model)
}

func (r *Remote) Name() string {
	return "remote:" + r.model
}
