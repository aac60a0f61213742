package config

import (
	"os"
	"testing"
)

func TestParseTransportMode(t *testing.T) {
	tests := []struct {
		value   string
		want    TransportMode
		wantErr bool
	}{
		{"", TransportRequest, false},
		{"request", TransportRequest, false},
		{"HTTP", TransportRequest, false},
		{"stream", TransportStream, false},
		{" websocket ", TransportStream, false},
		{"ws", TransportStream, false},
		{"carrier-pigeon", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseTransportMode(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTransportMode(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTransportMode(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestTransportDefaults(t *testing.T) {
	for _, key := range []string{"OPPOSITEGPT_TRANSPORT", "OPPOSITEGPT_API_URL", "OPPOSITEGPT_WS_URL", "OPPOSITEGPT_MODEL"} {
		os.Unsetenv(key)
	}

	if got := GetTransportMode(); got != TransportRequest {
		t.Errorf("GetTransportMode() = %q, want %q", got, TransportRequest)
	}
	if got := GetAPIURL(); got != DefaultAPIURL {
		t.Errorf("GetAPIURL() = %q, want %q", got, DefaultAPIURL)
	}
	if got := GetWSURL(); got != DefaultWSURL {
		t.Errorf("GetWSURL() = %q, want %q", got, DefaultWSURL)
	}
	if got := GetModel(); got != "llama2" {
		t.Errorf("GetModel() = %q, want llama2", got)
	}
}

func TestTransportOverrides(t *testing.T) {
	os.Setenv("OPPOSITEGPT_TRANSPORT", "bogus")
	os.Setenv("OPPOSITEGPT_API_URL", "https://flip.example.com/")
	defer os.Unsetenv("OPPOSITEGPT_TRANSPORT")
	defer os.Unsetenv("OPPOSITEGPT_API_URL")

	if got := GetTransportMode(); got != TransportRequest {
		t.Errorf("invalid transport should fall back to request, got %q", got)
	}
	if got := GetAPIURL(); got != "https://flip.example.com" {
		t.Errorf("GetAPIURL() = %q, want trailing slash trimmed", got)
	}
}
