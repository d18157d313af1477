// Package rrhh is the HTTP client of the HR backend's /rrhh API.
package rrhh

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/hr-portal/internal/core/datamodel/rrhh"
	"github.com/frahmantamala/hr-portal/pkg/logger"
	"github.com/frahmantamala/hr-portal/pkg/metrics"
)

type Config struct {
	BaseURL string
	// Timeout of zero leaves the transport default in place.
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) *Client {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

type bearerKey struct{}

// WithBearer attaches a credential forwarded as "Authorization: Bearer" on every call
// made with the returned context.
func WithBearer(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, bearerKey{}, token)
}

func bearerFrom(ctx context.Context) string {
	token, _ := ctx.Value(bearerKey{}).(string)
	return token
}

func (c *Client) ListAbsences(ctx context.Context) ([]rrhh.AbsenceRequest, error) {
	var out []rrhh.AbsenceRequest
	if err := c.do(ctx, "list_absences", http.MethodGet, "/rrhh/ausencias/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateAbsenceStatus(ctx context.Context, absenceID int64, status string) error {
	path := fmt.Sprintf("/rrhh/ausencias/%d/estado", absenceID)
	return c.do(ctx, "update_absence_status", http.MethodPut, path, rrhh.StatusUpdate{Estado: status}, nil)
}

func (c *Client) ListRoles(ctx context.Context) ([]rrhh.Role, error) {
	var out []rrhh.Role
	if err := c.do(ctx, "list_roles", http.MethodGet, "/rrhh/roles", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateEmployee(ctx context.Context, employee rrhh.NewEmployee) (*rrhh.Employee, error) {
	var out rrhh.Employee
	if err := c.do(ctx, "create_employee", http.MethodPost, "/rrhh/empleados", employee, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListEmployeesByDepartment(ctx context.Context, departmentID int64) ([]rrhh.Employee, error) {
	var out []rrhh.Employee
	path := fmt.Sprintf("/rrhh/empleados/departamento/%d", departmentID)
	if err := c.do(ctx, "list_department_employees", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListTerminationRequests(ctx context.Context, status string) ([]rrhh.TerminationRequest, error) {
	var out []rrhh.TerminationRequest
	path := "/rrhh/solicitud-baja"
	if status != "" {
		path += "?" + url.Values{"estado": []string{status}}.Encode()
	}
	if err := c.do(ctx, "list_termination_requests", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetEmployee(ctx context.Context, employeeID int64) (*rrhh.Employee, error) {
	var out rrhh.Employee
	path := fmt.Sprintf("/rrhh/empleados/%d", employeeID)
	if err := c.do(ctx, "get_employee", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTerminationRequest(ctx context.Context, req rrhh.NewTermination) error {
	return c.do(ctx, "create_termination_request", http.MethodPost, "/rrhh/solicitud-baja", req, nil)
}

func (c *Client) CreateAbsence(ctx context.Context, absence rrhh.NewAbsence) (*rrhh.AbsenceRequest, error) {
	var out rrhh.AbsenceRequest
	if err := c.do(ctx, "create_absence", http.MethodPost, "/rrhh/ausencias/", absence, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListEmployeeAbsences(ctx context.Context, employeeID int64) ([]rrhh.AbsenceRequest, error) {
	var out []rrhh.AbsenceRequest
	path := fmt.Sprintf("/rrhh/empleados/%d/ausencias", employeeID)
	if err := c.do(ctx, "list_employee_absences", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, operation, method, path string, body, out interface{}) error {
	lg := logger.FromOr(ctx, c.logger)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token := bearerFrom(ctx); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.ObserveUpstream(operation, "error", time.Since(start))
		lg.Error("rrhh request failed", "operation", operation, "method", method, "path", path, "error", err)
		return &UnavailableError{Operation: operation, Cause: err}
	}
	defer resp.Body.Close()

	metrics.ObserveUpstream(operation, strconv.Itoa(resp.StatusCode), time.Since(start))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UnavailableError{Operation: operation, Cause: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, raw)
		lg.Warn("rrhh request rejected",
			"operation", operation,
			"method", method,
			"path", path,
			"status_code", resp.StatusCode,
			"message", apiErr.Message())
		return apiErr
	}

	lg.Debug("rrhh request completed",
		"operation", operation,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &UnavailableError{Operation: operation, Cause: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// UnavailableError means no usable answer came back: network failure or an
// undecodable body.
type UnavailableError struct {
	Operation string
	Cause     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("rrhh %s unavailable: %v", e.Operation, e.Cause)
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// APIError is a non-2xx answer of the HR backend.
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("rrhh backend returned status %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("rrhh backend returned status %d", e.StatusCode)
}

// Message flattens the backend's messages into one displayable string.
func (e *APIError) Message() string {
	return strings.Join(e.Messages, ", ")
}

// newAPIError reads the structured error body. The backend answers
// {"message": "..."} or, for validation failures, {"message": ["...", "..."]};
// some routes use {"error": "..."} instead.
func newAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var body struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return apiErr
	}

	apiErr.Messages = flattenMessages(body.Message)
	if len(apiErr.Messages) == 0 {
		apiErr.Messages = flattenMessages(body.Error)
	}
	return apiErr
}

func flattenMessages(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single = strings.TrimSpace(single); single != "" {
			return []string{single}
		}
		return nil
	}

	var list []interface{}
	if err := json.Unmarshal(raw, &list); err == nil {
		var out []string
		for _, item := range list {
			switch v := item.(type) {
			case string:
				if v = strings.TrimSpace(v); v != "" {
					out = append(out, v)
				}
			case map[string]interface{}:
				if msg, ok := v["message"].(string); ok && msg != "" {
					out = append(out, msg)
				}
			}
		}
		return out
	}

	return nil
}

// AsAPIError reports whether err carries a backend rejection.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
