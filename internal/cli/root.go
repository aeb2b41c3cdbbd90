package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/growen-ao/growen-api/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile      string
	outputFormat string
	serverURL    string
	apiClient    *client.Client
)

var rootCmd = &cobra.Command{
	Use:   "growen",
	Short: "Growen CLI - business consulting, CRM and billing for Angolan SMEs",
	Long: `Growen CLI gives command-line access to a Growen server: sign in,
inspect plans and usage, and review bank-transfer payments as an administrator.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Parent() != nil && cmd.Parent().Name() == "config" {
			return nil
		}
		if _, err := normalizeOutput(getOutputFormat()); err != nil {
			return err
		}
		switch cmd.Name() {
		case "bootstrap":
			return nil
		case "login", "register", "forgot-password", "reset-password", "available", "bank-details", "health":
			return initClient()
		}
		return initAuthenticatedClient()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.growen/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (overrides config)")

	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("server_url", rootCmd.PersistentFlags().Lookup("server"))

	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newPlansCmd())
	rootCmd.AddCommand(newPaymentsCmd())
	rootCmd.AddCommand(newAdminCmd())
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".growen"), nil
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return
		}
		_ = os.MkdirAll(dir, 0700)
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// GROWEN_SERVER_URL, GROWEN_OUTPUT and GROWEN_AUTH_TOKEN override the file
	viper.SetEnvPrefix("GROWEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server_url", "http://localhost:8001")
	viper.SetDefault("output", "table")
	viper.SetDefault("timeout", "60s")

	_ = viper.ReadInConfig()
}

func initClient() error {
	raw := viper.GetString("server_url")
	if serverURL != "" {
		raw = serverURL
	}
	url, err := normalizeServerURL(raw)
	if err != nil {
		return err
	}

	apiClient = client.NewClient(client.Config{
		BaseURL: url,
		Timeout: viper.GetDuration("timeout"),
	})
	return nil
}

func initAuthenticatedClient() error {
	if err := initClient(); err != nil {
		return err
	}

	token := viper.GetString("auth.token")
	if token == "" {
		return fmt.Errorf("not authenticated. Run 'growen auth login' or set GROWEN_AUTH_TOKEN")
	}

	apiClient.SetToken(token)
	return nil
}

func getOutputFormat() string {
	if outputFormat != "" && outputFormat != "table" {
		return outputFormat
	}
	return viper.GetString("output")
}
