package cli

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultServerURL = "http://localhost:8001"

// settableKeys lists what `config set` accepts. Session keys under auth.*
// are only written by login and logout.
var settableKeys = map[string]func(string) (string, error){
	"server_url": normalizeServerURL,
	"output":     normalizeOutput,
	"timeout":    normalizeTimeout,
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigListCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Point the CLI at a Growen server",
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := promptSettings(bufio.NewReader(os.Stdin), os.Stdout)
			if err != nil {
				return err
			}
			for key, val := range values {
				viper.Set(key, val)
			}

			if err := writeConfig(); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			fmt.Println("Configuration saved. Run 'growen auth login' to sign in.")
			return nil
		},
	}
}

// promptSettings asks for each settable key, keeping the current value on
// an empty answer.
func promptSettings(in *bufio.Reader, out io.Writer) (map[string]string, error) {
	prompts := []struct {
		key   string
		label string
		def   string
	}{
		{"server_url", "Growen server URL", currentOr("server_url", defaultServerURL)},
		{"output", "Default output format (table/json/yaml)", currentOr("output", "table")},
	}

	values := make(map[string]string, len(prompts))
	for _, p := range prompts {
		fmt.Fprintf(out, "%s [%s]: ", p.label, p.def)
		answer, err := in.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			answer = p.def
		}
		normalized, err := settableKeys[p.key](answer)
		if err != nil {
			return nil, err
		}
		values[p.key] = normalized
	}
	return values, nil
}

func currentOr(key, def string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	return def
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Set server_url, output or timeout",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"server_url", "output", "timeout"},
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := validateSetting(args[0], args[1])
			if err != nil {
				return err
			}
			viper.Set(args[0], value)
			if err := writeConfig(); err != nil {
				return err
			}
			fmt.Printf("%s = %s\n", args[0], value)
			return nil
		},
	}
}

// validateSetting returns the normalized value for key
func validateSetting(key, value string) (string, error) {
	normalize, ok := settableKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown key %q (settable: server_url, output, timeout)", key)
	}
	return normalize(value)
}

func normalizeServerURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("invalid server URL %q: expected http(s)://host[:port]", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

func normalizeOutput(raw string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(raw))
	switch format {
	case "table", "json", "yaml":
		return format, nil
	}
	return "", fmt.Errorf("invalid output format %q: use table, json or yaml", raw)
}

// normalizeTimeout accepts Go durations of at least 5s
func normalizeTimeout(raw string) (string, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d < 5*time.Second {
		return "", fmt.Errorf("invalid timeout %q: use a duration of at least 5s, e.g. 90s", raw)
	}
	return d.String(), nil
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("%s: %s\n", args[0], displayValue(args[0], viper.Get(args[0])))
			return nil
		},
	}
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show all configuration values",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := viper.AllKeys()
			sort.Strings(keys)
			for _, key := range keys {
				fmt.Printf("%s: %s\n", key, displayValue(key, viper.Get(key)))
			}
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}

// displayValue hides the stored session token
func displayValue(key string, val interface{}) string {
	if val == nil || val == "" {
		return "(not set)"
	}
	if key == "auth.token" {
		return "(session stored)"
	}
	return fmt.Sprint(val)
}

func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func writeConfig() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return viper.WriteConfigAs(path)
}
