package confluence

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{404, KindNotFound},
		{401, KindUnauthorized},
		{403, KindUnauthorized},
		{409, KindConflict},
		{502, KindUnavailable},
		{503, KindUnavailable},
		{504, KindUnavailable},
		{400, KindUnknown},
		{500, KindUnknown},
		{418, KindUnknown},
	}
	for _, tt := range tests {
		if got := kindForStatus(tt.status); got != tt.want {
			t.Errorf("kindForStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestUpstreamError_Error(t *testing.T) {
	err := &UpstreamError{Kind: KindNotFound, StatusCode: 404, Detail: "no content"}
	want := "confluence: not_found (status 404): no content"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	bare := &UpstreamError{Kind: KindUnknown, StatusCode: 500}
	if bare.Error() != "confluence: upstream_error (status 500)" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestIsNotFound_Wrapped(t *testing.T) {
	inner := &UpstreamError{Kind: KindNotFound, StatusCode: 404, Detail: "gone"}
	wrapped := fmt.Errorf("fetching page: %w", inner)

	if !IsNotFound(wrapped) {
		t.Error("IsNotFound() = false for wrapped not-found error")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("IsNotFound() = true for unrelated error")
	}

	var ue *UpstreamError
	if !errors.As(wrapped, &ue) || ue.StatusCode != 404 {
		t.Errorf("errors.As failed to recover the upstream error: %v", wrapped)
	}
}

func TestTransportError(t *testing.T) {
	err := transportError(errors.New("dial tcp: connection refused"))
	if err.Kind != KindUnavailable || err.StatusCode != 502 {
		t.Errorf("transportError = %+v, want unavailable/502", err)
	}
	if err.Detail != "dial tcp: connection refused" {
		t.Errorf("detail = %q", err.Detail)
	}
}
