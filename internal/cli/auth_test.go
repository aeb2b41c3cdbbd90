package cli

import (
	"strings"
	"testing"
)

func TestCheckNewPassword(t *testing.T) {
	tests := []struct {
		pw, confirm string
		wantErr     bool
	}{
		{"segredo123", "segredo123", false},
		{"çãoçã", "çãoçã", true},
		{"palavra", "palavra", false},
		{"segredo123", "segredo124", true},
		{strings.Repeat("a", 129), strings.Repeat("a", 129), true},
	}
	for _, tt := range tests {
		if err := checkNewPassword(tt.pw, tt.confirm); (err != nil) != tt.wantErr {
			t.Errorf("checkNewPassword(%q) error = %v, wantErr %v", tt.pw, err, tt.wantErr)
		}
	}
}
