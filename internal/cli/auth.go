package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/growen-ao/growen-api/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthRegisterCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthWhoamiCmd())
	cmd.AddCommand(newAuthPasswdCmd())
	cmd.AddCommand(newAuthForgotCmd())
	cmd.AddCommand(newAuthResetCmd())

	return cmd
}

func saveSession(resp *client.AuthResponse, email string) error {
	viper.Set("auth.token", resp.Token)
	viper.Set("auth.email", email)
	return writeConfig()
}

func newAuthLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = promptInput("Email: ")
			}
			if password == "" {
				password = promptPassword("Password: ")
			}

			resp, err := apiClient.Login(context.Background(), email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := saveSession(resp, email); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}

			name := email
			if resp.User != nil && resp.User.Name != "" {
				name = resp.User.Name
			}
			fmt.Printf("Logged in as %s\n", name)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")

	return cmd
}

func newAuthRegisterCmd() *cobra.Command {
	var req client.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account on the free plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Email == "" {
				req.Email = promptInput("Email: ")
			}
			if req.Name == "" {
				req.Name = promptInput("Name: ")
			}
			if req.Password == "" {
				pw, err := promptNewPassword("Password: ")
				if err != nil {
					return err
				}
				req.Password = pw
			}

			resp, err := apiClient.Register(context.Background(), req)
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			if err := saveSession(resp, req.Email); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}

			fmt.Printf("Account created. Logged in as %s\n", req.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "password")
	cmd.Flags().StringVar(&req.Name, "name", "", "full name")
	cmd.Flags().StringVar(&req.Company, "company", "", "company name")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "phone number, e.g. +244 923 000 000")
	cmd.Flags().StringVar(&req.Industry, "industry", "", "business sector")

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and clear stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient.Logout(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: server logout failed: %v\n", err)
			}

			viper.Set("auth.token", "")
			viper.Set("auth.email", "")
			if err := writeConfig(); err != nil {
				return fmt.Errorf("failed to clear credentials: %w", err)
			}

			fmt.Println("Logged out successfully")
			return nil
		},
	}
}

func newAuthWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show current user info",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := apiClient.GetCurrentUser(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get user info: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(user)
			}

			fmt.Printf("Email:    %s\n", user.Email)
			fmt.Printf("Name:     %s\n", user.Name)
			if user.Company != "" {
				fmt.Printf("Company:  %s\n", user.Company)
			}
			fmt.Printf("Plan:     %s\n", user.Plan)
			if user.SubscriptionExpires != nil {
				fmt.Printf("Expires:  %s\n", formatTime(*user.SubscriptionExpires, "2006-01-02"))
			}
			if user.IsAdmin {
				fmt.Println("Role:     admin")
			}
			fmt.Printf("ID:       %d\n", user.ID)
			return nil
		},
	}
}

func newAuthPasswdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change your password",
		RunE: func(cmd *cobra.Command, args []string) error {
			current := promptPassword("Current password: ")
			next, err := promptNewPassword("New password: ")
			if err != nil {
				return err
			}
			if err := apiClient.ChangePassword(context.Background(), current, next); err != nil {
				return fmt.Errorf("password change failed: %w", err)
			}
			fmt.Println("Password changed")
			return nil
		},
	}
}

func newAuthForgotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forgot-password [email]",
		Short: "Email a password reset link",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := ""
			if len(args) == 1 {
				email = args[0]
			} else {
				email = promptInput("Email: ")
			}
			if err := apiClient.ForgotPassword(context.Background(), email); err != nil {
				return err
			}
			fmt.Println("If the address is registered, a reset link is on its way")
			return nil
		},
	}
}

func newAuthResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <token>",
		Short: "Set a new password with the token from the reset email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			next, err := promptNewPassword("New password: ")
			if err != nil {
				return err
			}
			if err := apiClient.ResetPassword(context.Background(), args[0], next); err != nil {
				return fmt.Errorf("reset failed: %w", err)
			}
			fmt.Println("Password reset. Run 'growen auth login' to sign in.")
			return nil
		},
	}
}

// promptNewPassword asks twice and applies the server's length rule locally
func promptNewPassword(prompt string) (string, error) {
	pw := promptPassword(prompt)
	if err := checkNewPassword(pw, promptPassword("Confirm password: ")); err != nil {
		return "", err
	}
	return pw, nil
}

func checkNewPassword(pw, confirm string) error {
	if n := utf8.RuneCountInString(pw); n < minPasswordLen || n > maxPasswordLen {
		return fmt.Errorf("password must have between %d and %d characters", minPasswordLen, maxPasswordLen)
	}
	if pw != confirm {
		return fmt.Errorf("passwords do not match")
	}
	return nil
}

const (
	minPasswordLen = 6
	maxPasswordLen = 128
)

func promptInput(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func promptPassword(prompt string) string {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return ""
	}
	return string(password)
}
