package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// luanda is the display zone for timestamps; the API stores UTC.
var luanda = loadLuanda()

func loadLuanda() *time.Location {
	if loc, err := time.LoadLocation("Africa/Luanda"); err == nil {
		return loc
	}
	return time.FixedZone("WAT", 60*60)
}

// Table renders rows as aligned columns
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cols ...string) {
	t.rows = append(t.rows, cols)
}

// Render writes the table to stdout.
func (t *Table) Render() {
	_ = t.RenderTo(os.Stdout)
}

// RenderTo writes the header, a dashed rule and every row to out
func (t *Table) RenderTo(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(t.headers, "\t"))

	rule := make([]string, len(t.headers))
	for i, h := range t.headers {
		rule[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(w, strings.Join(rule, "\t"))

	for _, row := range t.rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

// printOutput prints data as JSON or YAML. Table output is built by each
// command, so "table" falls back to JSON here.
func printOutput(data interface{}) error {
	return encode(os.Stdout, getOutputFormat(), data)
}

func encode(out io.Writer, format string, data interface{}) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// truncate shortens s to maxLen characters, ending in "..." when cut.
// Client and company names are counted in runes so accents survive.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// formatStatus marks payment, email and invoice states
func formatStatus(status string) string {
	switch strings.ToLower(status) {
	case "approved", "sent", "pago", "cliente_ativo":
		return "[+] " + status
	case "rejected", "failed", "vencido", "cancelado":
		return "[-] " + status
	case "pending", "sending", "pendente":
		return "[*] " + status
	default:
		return status
	}
}

// formatAmount renders whole kwanza (or other currency) units with the
// Angolan dot thousands separator.
func formatAmount(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	s := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + " " + currency
}

// formatUsage renders used/limit, with -1 meaning unlimited.
func formatUsage(used, limit int) string {
	if limit < 0 {
		return fmt.Sprintf("%d / unlimited", used)
	}
	return fmt.Sprintf("%d / %d", used, limit)
}

// formatTime shows t in Luanda time, or "-" when unset
func formatTime(t time.Time, layout string) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(luanda).Format(layout)
}
