package utils_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/npri-watch/npri-api/internal/utils"
)

func TestJSON(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		data       interface{}
		wantStatus int
		wantBody   map[string]interface{}
	}{
		{
			name:       "Success response",
			statusCode: http.StatusOK,
			data:       map[string]string{"status": "healthy"},
			wantStatus: http.StatusOK,
			wantBody: map[string]interface{}{
				"success": true,
				"data":    map[string]interface{}{"status": "healthy"},
			},
		},
		{
			name:       "Error status but with data",
			statusCode: http.StatusServiceUnavailable,
			data:       map[string]string{"status": "unhealthy"},
			wantStatus: http.StatusServiceUnavailable,
			wantBody: map[string]interface{}{
				"success": false,
				"data":    map[string]interface{}{"status": "unhealthy"},
			},
		},
		{
			name:       "Nil data",
			statusCode: http.StatusOK,
			data:       nil,
			wantStatus: http.StatusOK,
			wantBody: map[string]interface{}{
				"success": true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()

			utils.JSON(rr, tt.statusCode, tt.data)

			if status := rr.Code; status != tt.wantStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", status, tt.wantStatus)
			}
			if ctype := rr.Header().Get("Content-Type"); ctype != "application/json" {
				t.Errorf("handler returned wrong content type: got %v want application/json", ctype)
			}

			var response map[string]interface{}
			if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
				t.Fatalf("Could not parse response body: %v", err)
			}
			if !reflect.DeepEqual(response, tt.wantBody) {
				t.Errorf("handler returned unexpected body: got %v want %v", response, tt.wantBody)
			}
		})
	}
}

func TestError(t *testing.T) {
	rr := httptest.NewRecorder()

	utils.Error(rr, http.StatusBadRequest, "unknown_filter", "Unknown filter", map[string]any{"key": "rivers"})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("wrong status code: got %v want %v", rr.Code, http.StatusBadRequest)
	}

	want := map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"code":    "unknown_filter",
			"message": "Unknown filter",
			"details": map[string]interface{}{"key": "rivers"},
		},
	}
	var got map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("Could not parse response body: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected body: got %v want %v", got, want)
	}
}

func TestErrorFromAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        *utils.AppError
		wantStatus int
		wantCode   string
		wantDetail map[string]interface{}
	}{
		{
			name:       "Explicit code wins",
			err:        utils.NewCodedBadRequestError("no_filters", "At least one filter is required", nil),
			wantStatus: http.StatusBadRequest,
			wantCode:   "no_filters",
		},
		{
			name:       "Code from sentinel",
			err:        utils.NewUnavailableError(errors.New("breaker open")),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "unavailable",
		},
		{
			name:       "Timeout",
			err:        utils.NewTimeoutError(nil),
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   "timeout",
		},
		{
			name:       "Field becomes a detail",
			err:        utils.NewValidationError("near", "latitude out of range"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation_error",
			wantDetail: map[string]interface{}{"near": "latitude out of range"},
		},
		{
			name:       "Internal error hides dev info",
			err:        utils.NewInternalServerError(errors.New("password authentication failed")),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()

			utils.ErrorFromAppError(rr, tt.err)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %v, want %v", rr.Code, tt.wantStatus)
			}

			var resp utils.Response
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Could not parse response body: %v", err)
			}
			if resp.Success {
				t.Error("expected success=false")
			}
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Fatalf("error = %+v, want code %s", resp.Error, tt.wantCode)
			}
			if tt.wantDetail != nil && !reflect.DeepEqual(resp.Error.Details, tt.wantDetail) {
				t.Errorf("details = %v, want %v", resp.Error.Details, tt.wantDetail)
			}
			if tt.err.DevInfo != "" && resp.Error.Message == tt.err.DevInfo {
				t.Error("dev info leaked into the message")
			}
		})
	}
}

func TestSendRawJSON(t *testing.T) {
	rr := httptest.NewRecorder()

	utils.SendRawJSON(rr, http.StatusOK, []byte(`[{"NpriID":1}]`))

	if rr.Code != http.StatusOK {
		t.Errorf("status = %v, want 200", rr.Code)
	}
	if rr.Body.String() != `[{"NpriID":1}]` {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestHTML(t *testing.T) {
	rr := httptest.NewRecorder()

	utils.HTML(rr, http.StatusOK, []byte("<table></table>"))

	if ctype := rr.Header().Get("Content-Type"); ctype != "text/html; charset=utf-8" {
		t.Errorf("content type = %v", ctype)
	}
	if rr.Body.String() != "<table></table>" {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestConvenienceResponses(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantCode   string
	}{
		{"NotFound", func(w http.ResponseWriter) { utils.NotFound(w, "") }, http.StatusNotFound, "not_found"},
		{"MethodNotAllowed", utils.MethodNotAllowed, http.StatusMethodNotAllowed, "method_not_allowed"},
		{"TooManyRequests", utils.TooManyRequests, http.StatusTooManyRequests, "rate_limited"},
		{"InternalServerError", func(w http.ResponseWriter) { utils.InternalServerError(w, errors.New("x")) }, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.write(rr)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %v, want %v", rr.Code, tt.wantStatus)
			}
			var resp utils.Response
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Could not parse response body: %v", err)
			}
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", resp.Error, tt.wantCode)
			}
		})
	}
}
