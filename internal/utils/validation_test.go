package utils_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/npri-watch/npri-api/internal/utils"
)

type pointRequest struct {
	Latitude  float64 `json:"lat" validate:"latitude"`
	Longitude float64 `json:"lon" validate:"longitude"`
}

type formatRequest struct {
	Application string `json:"application" validate:"required,oneof=data report"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{}
		wantErr   bool
		wantField string
	}{
		{name: "Valid point", input: pointRequest{Latitude: 43.5, Longitude: -80.25}},
		{name: "Latitude out of range", input: pointRequest{Latitude: 95, Longitude: -80.25}, wantErr: true, wantField: "lat"},
		{name: "Valid application", input: formatRequest{Application: "report"}},
		{name: "Unknown application", input: formatRequest{Application: "csv"}, wantErr: true, wantField: "application"},
		{name: "Both coordinates invalid", input: pointRequest{Latitude: 95, Longitude: 200}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := utils.ValidateStruct(tt.input)

			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}

			var appErr *utils.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected an AppError, got %T", err)
			}
			if appErr.StatusCode != http.StatusBadRequest {
				t.Errorf("StatusCode = %v, want 400", appErr.StatusCode)
			}
			if !errors.Is(err, utils.ErrValidation) {
				t.Error("expected a validation error")
			}
			if tt.wantField != "" && appErr.Field != tt.wantField {
				t.Errorf("Field = %v, want %v", appErr.Field, tt.wantField)
			}
		})
	}
}

func TestValidateStructMultipleErrors(t *testing.T) {
	err := utils.ValidateStruct(pointRequest{Latitude: -91, Longitude: 181})

	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected an AppError, got %v", err)
	}
	if len(appErr.Details) != 2 {
		t.Errorf("Details = %v, want two entries", appErr.Details)
	}
	if _, ok := appErr.Details["lat"]; !ok {
		t.Errorf("expected a lat detail, got %v", appErr.Details)
	}
}

func TestGetValidator(t *testing.T) {
	if utils.GetValidator() != utils.GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}
