/*
PURPOSE:
  HTTP client for an external exposure-time calculator service.
  Exposes the same Calculator contract as the builtin model.

REQUIREMENTS:
  User-specified:
  - The science may live in an external library/service treated as a black box.

  Implementation-discovered:
  - Needs http.Client with timeouts; the remote solve can take a while.
  - Retries with a fixed delay on transport errors and 5xx answers.
  - Observation building is local (catalog check + parameter snapshot);
    every solve posts the full ParameterSet.

ARCHITECTURE INTEGRATION:
  - Implements: etc.Calculator
  - Selected by: internal/cli (backend: remote)
  - Uses: internal/output (logging)

ERROR HANDLING:
  - Header timeouts and connection failures are classified in the error text.
  - 4xx answers are not retried.

USAGE:
  r := etc.NewRemote("http://etc:8000", 60*time.Second, 3, 2*time.Second)
  res, err := r.SNR(ctx, obs)

RELATED FILES:
  - internal/etc/etc.go
*/

package etc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/daryltucker/wst-etc/internal/model"
	"github.com/daryltucker/wst-etc/internal/output"
)

// Remote talks to an ETC service over HTTP.
type Remote struct {
	BaseURL    string
	Client     *http.Client
	MaxRetries int
	RetryDelay time.Duration
}

var _ Calculator = (*Remote)(nil)

// NewRemote creates a Remote calculator.
func NewRemote(baseURL string, timeout time.Duration, maxRetries int, retryDelay time.Duration) *Remote {
	// ResponseHeaderTimeout covers the solve itself: the service answers only when done.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout

	return &Remote{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Transport: transport,
			Timeout:   timeout * 2,
		},
		MaxRetries: maxRetries,
		RetryDelay: retryDelay,
	}
}

type solveRequest struct {
	Family   string             `json:"family"`
	Params   model.ParameterSet `json:"params"`
	SolveDIT bool               `json:"solve_dit,omitempty"`
}

// Build checks the pair against the catalog and snapshots the parameters.
func (r *Remote) Build(ctx context.Context, ps model.ParameterSet) (*Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ins, ch := ps.Instrument(), ps.Channel()
	if !model.ValidPair(ins, ch) {
		return nil, fmt.Errorf("%w: channel %q is not available for instrument %q", ErrUnknownChannel, ch, ins)
	}
	return &Observation{
		Params:     ps.Clone(),
		Instrument: ins,
		Channel:    ch,
		Family:     model.FamilyOf(ins),
	}, nil
}

func (r *Remote) SNR(ctx context.Context, obs *Observation) (*SNRResult, error) {
	if err := checkFamily(obs, model.FamilyIFS); err != nil {
		return nil, err
	}
	return r.solveSNR(ctx, obs)
}

func (r *Remote) SNRMOS(ctx context.Context, obs *Observation) (*SNRResult, error) {
	if err := checkFamily(obs, model.FamilyMOS); err != nil {
		return nil, err
	}
	return r.solveSNR(ctx, obs)
}

func (r *Remote) Time(ctx context.Context, obs *Observation, solveDIT bool) (*TimeResult, error) {
	if err := checkFamily(obs, model.FamilyIFS); err != nil {
		return nil, err
	}
	return r.solveTime(ctx, obs, solveDIT)
}

func (r *Remote) TimeMOS(ctx context.Context, obs *Observation, solveDIT bool) (*TimeResult, error) {
	if err := checkFamily(obs, model.FamilyMOS); err != nil {
		return nil, err
	}
	return r.solveTime(ctx, obs, solveDIT)
}

func (r *Remote) solveSNR(ctx context.Context, obs *Observation) (*SNRResult, error) {
	var res SNRResult
	req := solveRequest{Family: obs.Family.String(), Params: obs.Params}
	if err := r.post(ctx, "/api/snr", req, &res); err != nil {
		return nil, err
	}
	if !res.Failed() && len(res.SNR.Wave) != len(res.SNR.Data) {
		return nil, fmt.Errorf("ETC returned %d wavelengths for %d SNR samples", len(res.SNR.Wave), len(res.SNR.Data))
	}
	return &res, nil
}

func (r *Remote) solveTime(ctx context.Context, obs *Observation, solveDIT bool) (*TimeResult, error) {
	var res TimeResult
	req := solveRequest{Family: obs.Family.String(), Params: obs.Params, SolveDIT: solveDIT}
	if err := r.post(ctx, "/api/time", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Health checks that the service answers.
func (r *Remote) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+"/api/health", nil)
	if err != nil {
		return err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return fmt.Errorf("ETC Network/Connection Error: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}
	return nil
}

type statusError struct {
	status string
	code   int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("ETC Server Error (%s): %s", e.status, e.body)
}

func (r *Remote) post(ctx context.Context, path string, payload, out any) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	attempts := r.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			output.Logger.Infow("Retrying ETC request...", "path", path, "attempt", i+1, "error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.RetryDelay):
			}
		}

		lastErr = r.do(ctx, path, reqBody, out)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var se *statusError
		if errors.As(lastErr, &se) && se.code < 500 {
			return lastErr
		}
	}
	return lastErr
}

func (r *Remote) do(ctx context.Context, path string, reqBody []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		if strings.Contains(err.Error(), "awaiting headers") {
			return fmt.Errorf("ETC Header Timeout (solve too slow?): %w", err)
		}
		return fmt.Errorf("ETC Network/Connection Error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &statusError{status: resp.Status, code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("ETC returned invalid JSON: %w (Body: %s)", err, string(body))
	}
	return nil
}
