package request

import "testing"

func TestNormalizeProvider(t *testing.T) {
	tests := []struct {
		host     string
		expected string
	}{
		{"api.foursquare.com", "places"},
		{"places-api.foursquare.com", "places"},
		{"foursquare.com", "places"},
		{"abcdefgh.supabase.co", "auth"},
		{"ABCDEFGH.SUPABASE.CO", "auth"},
		{"127.0.0.1:54321", "127.0.0.1:54321"},
		{"other.com", "other.com"},
	}

	for _, tt := range tests {
		got := normalizeProvider(tt.host)
		if got != tt.expected {
			t.Errorf("normalizeProvider(%q) = %q; want %q", tt.host, got, tt.expected)
		}
	}
}
