package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/growen-ao/growen-api/pkg/client"
	"github.com/spf13/cobra"
)

func newPaymentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Bank-transfer payments",
	}

	cmd.AddCommand(newPaymentsBankDetailsCmd())
	cmd.AddCommand(newPaymentsStatusCmd())
	cmd.AddCommand(newPaymentsPendingCmd())
	cmd.AddCommand(newPaymentsUploadCmd())
	cmd.AddCommand(newPaymentsProofCmd())
	cmd.AddCommand(newPaymentsReviewCmd("approve", "Approve a proof and activate the plan"))
	cmd.AddCommand(newPaymentsReviewCmd("reject", "Reject a proof"))

	return cmd
}

func newPaymentsBankDetailsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bank-details",
		Short: "Show where to send the transfer",
		RunE: func(cmd *cobra.Command, args []string) error {
			bd, err := apiClient.Payments().BankDetails(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get bank details: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(bd)
			}

			fmt.Printf("Bank:     %s\n", bd.BankName)
			fmt.Printf("Holder:   %s\n", bd.AccountHolder)
			fmt.Printf("Account:  %s\n", bd.AccountNumber)
			fmt.Printf("IBAN:     %s\n", bd.IBAN)
			if bd.SwiftCode != "" {
				fmt.Printf("SWIFT:    %s\n", bd.SwiftCode)
			}
			fmt.Printf("Currency: %s\n", bd.Currency)
			return nil
		},
	}
}

func renderPayments(payments []client.Payment) error {
	if getOutputFormat() != "table" {
		return printOutput(payments)
	}
	if len(payments) == 0 {
		fmt.Println("No payments found")
		return nil
	}

	table := NewTable("ID", "USER", "PLAN", "AMOUNT", "REFERENCE", "STATUS", "SUBMITTED")
	for _, p := range payments {
		table.AddRow(
			p.ID,
			truncate(p.UserEmail, 30),
			p.PlanID,
			formatAmount(p.Amount, p.Currency),
			truncate(p.ReferenceNumber, 20),
			formatStatus(p.Status),
			formatTime(p.CreatedAt, "2006-01-02 15:04"),
		)
	}
	table.Render()
	return nil
}

func newPaymentsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List your submitted proofs",
		RunE: func(cmd *cobra.Command, args []string) error {
			payments, err := apiClient.Payments().Status(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list payments: %w", err)
			}
			return renderPayments(payments)
		},
	}
}

func newPaymentsPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List proofs awaiting review (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			payments, err := apiClient.Payments().Pending(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list pending payments: %w", err)
			}
			return renderPayments(payments)
		},
	}
}

func newPaymentsReviewCmd(action, short string) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   action + " <payment-id>",
		Short: short + " (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			review := apiClient.Payments().Approve
			if action == "reject" {
				review = apiClient.Payments().Reject
			}

			res, err := review(ctx, args[0], notes)
			if err != nil {
				return fmt.Errorf("failed to %s payment: %w", action, err)
			}

			if getOutputFormat() != "table" {
				return printOutput(res)
			}
			fmt.Println(res.Message)
			if res.Result.SubscriptionExpires != nil {
				fmt.Printf("Plan %s active until %s\n", res.Result.Plan, formatTime(*res.Result.SubscriptionExpires, "2006-01-02"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "notes shown to the user")
	return cmd
}

func newPaymentsUploadCmd() *cobra.Command {
	var planID, reference, notes string

	cmd := &cobra.Command{
		Use:   "upload <receipt-file>",
		Short: "Send a bank-transfer receipt (PNG, JPEG or PDF) for a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := apiClient.Payments().UploadProof(context.Background(), client.ProofUpload{
				PlanID:          planID,
				ReferenceNumber: reference,
				Notes:           notes,
				FileName:        args[0],
				Body:            f,
			})
			if err != nil {
				return fmt.Errorf("failed to upload proof: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(res)
			}
			fmt.Println(res.Message)
			fmt.Printf("Payment %s is %s\n", res.PaymentID, formatStatus(res.Status))
			return nil
		},
	}

	cmd.Flags().StringVar(&planID, "plan", "", "plan paid for (starter or pro)")
	cmd.Flags().StringVar(&reference, "reference", "", "transfer reference number")
	cmd.Flags().StringVar(&notes, "notes", "", "notes for the reviewer")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

func newPaymentsProofCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "proof <payment-id>",
		Short: "Download the receipt of a payment (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := apiClient.Payments().Proof(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to download proof: %w", err)
			}

			path := out
			if path == "" {
				path = filepath.Base(file.Name)
				if path == "" || path == "." || path == "/" {
					path = args[0]
				}
			}
			if err := os.WriteFile(path, file.Body, 0o600); err != nil {
				return err
			}
			fmt.Printf("Saved %s (%s, %d bytes)\n", path, file.ContentType, len(file.Body))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "file", "f", "", "output path (default: the uploaded file name)")
	return cmd
}
