package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "0 AOA"},
		{950, "950 AOA"},
		{15000, "15.000 AOA"},
		{1250000, "1.250.000 AOA"},
	}
	for _, tt := range tests {
		if got := formatAmount(tt.amount, "AOA"); got != tt.want {
			t.Errorf("formatAmount(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFormatUsage(t *testing.T) {
	if got := formatUsage(3, -1); got != "3 / unlimited" {
		t.Errorf("formatUsage unlimited = %q", got)
	}
	if got := formatUsage(2, 5); got != "2 / 5" {
		t.Errorf("formatUsage = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("comprovativo-maio.pdf", 10); got != "comprov..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("curto", 10); got != "curto" {
		t.Errorf("truncate short = %q", got)
	}
}

func TestTruncateKeepsRunes(t *testing.T) {
	got := truncate("Padaria São João do Cazenga", 12)
	if got != "Padaria S..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("Açúcar & Cia", 12); got != "Açúcar & Cia" {
		t.Errorf("truncate exact = %q", got)
	}
}

func TestFormatAmountNegative(t *testing.T) {
	if got := formatAmount(-15000, "AOA"); got != "-15.000 AOA" {
		t.Errorf("formatAmount(-15000) = %q", got)
	}
}

func TestFormatTime(t *testing.T) {
	if got := formatTime(time.Time{}, "2006-01-02"); got != "-" {
		t.Errorf("zero time = %q", got)
	}
	utc := time.Date(2026, 3, 31, 23, 30, 0, 0, time.UTC)
	if got := formatTime(utc, "2006-01-02 15:04"); got != "2026-04-01 00:30" {
		t.Errorf("Luanda time = %q", got)
	}
}

func TestTableRenderTo(t *testing.T) {
	table := NewTable("PLAN", "PRICE")
	table.AddRow("starter", formatAmount(15000, "AOA"))

	var buf bytes.Buffer
	if err := table.RenderTo(&buf); err != nil {
		t.Fatalf("RenderTo() error = %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "----") || !strings.Contains(lines[2], "15.000 AOA") {
		t.Errorf("table =\n%s", buf.String())
	}
}

func TestEncodeYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := encode(&buf, "yaml", map[string]int{"clients": 3}); err != nil {
		t.Fatalf("encode() error = %v", err)
	}
	if buf.String() != "clients: 3\n" {
		t.Errorf("yaml = %q", buf.String())
	}
}
