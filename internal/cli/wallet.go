package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/astroconsult/consult-server-go/internal/client"
	"github.com/astroconsult/consult-server-go/internal/consult"
)

func newWalletCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Show and top up the wallet",
		Long: `Show the balance and transactions, or add funds.

Examples:
  consultctl wallet
  consultctl wallet history
  consultctl wallet recharge 500
  consultctl wallet dakshina 51`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.init(); err != nil {
				return err
			}
			return a.requireLogin()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showBalance(cmd)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "balance",
			Short: "Show the balance",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.showBalance(cmd)
			},
		},
		&cobra.Command{
			Use:   "history",
			Short: "List transactions",
			RunE: func(cmd *cobra.Command, args []string) error {
				ledger := a.ledger()
				if err := ledger.Refresh(cmd.Context()); err != nil {
					return err
				}
				history := ledger.History()
				if len(history) == 0 {
					a.printf("No transactions yet.\n")
					return nil
				}
				for _, t := range history {
					a.printf("%s  %-8s %10.2f  %-8s %s\n",
						t.Timestamp.Format("2006-01-02 15:04"), t.Type, t.Amount, t.Status, t.Description)
				}
				return nil
			},
		},
		newCreditCmd(a, "recharge", "Add funds to the wallet", (*consult.Ledger).Recharge),
		newCreditCmd(a, "dakshina", "Offer dakshina", (*consult.Ledger).Dakshina),
	)
	return cmd
}

func newCreditCmd(
	a *app,
	use, short string,
	credit func(*consult.Ledger, context.Context, float64) (*client.RechargeResponse, error),
) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <amount>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return &client.ValidationError{Field: "amount", Message: "Please enter a positive amount"}
			}

			ledger := a.ledger()
			resp, err := credit(ledger, cmd.Context(), amount)
			if err != nil {
				return err
			}
			if resp.Status != client.RechargeSuccess {
				return fmt.Errorf("payment %s", resp.Status)
			}

			a.printf("Payment successful (ref %s).\n", resp.Reference)
			if balance, ok := ledger.Balance(); ok {
				a.printf("Balance: %.2f\n", balance)
			}
			return nil
		},
	}
}

func (a *app) ledger() *consult.Ledger {
	return consult.NewLedger(a.api, a.session, consult.NewWallet())
}

func (a *app) showBalance(cmd *cobra.Command) error {
	ledger := a.ledger()
	if err := ledger.Refresh(cmd.Context()); err != nil {
		return err
	}
	balance, _ := ledger.Balance()
	a.printf("Balance: %.2f\n", balance)
	return nil
}
