package cli

import (
	"fmt"
	"math/big"
	"time"

	"github.com/spf13/cobra"

	"github.com/FilOzone/synapse-sdk-go/pkg/chain"
	"github.com/FilOzone/synapse-sdk-go/pkg/storagecontext"
)

var paymentsCmd = &cobra.Command{
	Use:   "payments",
	Short: "Manage the payments account backing uploads",
}

func init() {
	paymentsCmd.AddCommand(accountCmd)
	paymentsCmd.AddCommand(balanceCmd)
	paymentsCmd.AddCommand(depositCmd)
	paymentsCmd.AddCommand(withdrawCmd)
	paymentsCmd.AddCommand(approveServiceCmd)
	paymentsCmd.AddCommand(settleCmd)

	depositCmd.Flags().String("amount", "", "amount to deposit, in base token units")
	cobra.CheckErr(depositCmd.MarkFlagRequired("amount"))
	depositCmd.Flags().Uint64("permit-deadline", 0, "EIP-2612 permit deadline as a unix timestamp (default: 1 hour from now)")

	withdrawCmd.Flags().String("amount", "", "amount to withdraw, in base token units")
	cobra.CheckErr(withdrawCmd.MarkFlagRequired("amount"))

	approveServiceCmd.Flags().String("rate-allowance", "", "maximum per-epoch payment rate to approve")
	approveServiceCmd.Flags().String("lockup-allowance", "", "maximum lockup amount to approve")
	approveServiceCmd.Flags().String("max-lockup-period", "", "maximum lockup period, in epochs")
	cobra.CheckErr(approveServiceCmd.MarkFlagRequired("rate-allowance"))
	cobra.CheckErr(approveServiceCmd.MarkFlagRequired("lockup-allowance"))
	cobra.CheckErr(approveServiceCmd.MarkFlagRequired("max-lockup-period"))

	settleCmd.Flags().String("rail-id", "", "rail ID to settle")
	settleCmd.Flags().String("until-epoch", "", "settle up to and including this epoch")
	cobra.CheckErr(settleCmd.MarkFlagRequired("rail-id"))
	cobra.CheckErr(settleCmd.MarkFlagRequired("until-epoch"))
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show payments account funds and lockup state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		synapse, err := loadSynapse(cmd.Context(), storagecontext.Callbacks{})
		if err != nil {
			return err
		}
		info, err := synapse.Payments.AccountInfo(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching account info: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Funds:                %s\n", info.Funds)
		fmt.Fprintf(cmd.OutOrStdout(), "Available funds:      %s\n", info.AvailableFunds)
		fmt.Fprintf(cmd.OutOrStdout(), "Lockup (current):     %s\n", info.LockupCurrent)
		fmt.Fprintf(cmd.OutOrStdout(), "Lockup rate:          %s\n", info.LockupRate)
		fmt.Fprintf(cmd.OutOrStdout(), "Lockup last settled:  %s\n", info.LockupLastSettledAt)
		return nil
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the configured payments token's on-chain balance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		synapse, err := loadSynapse(cmd.Context(), storagecontext.Callbacks{})
		if err != nil {
			return err
		}
		balance, err := synapse.Payments.Balance(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching balance: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), balance.String())
		return nil
	},
}

var depositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Deposit tokens into the payments account via an EIP-2612 permit",
	Long: `Deposit ERC20 tokens into the payments contract via depositWithPermit, which
derives and submits the permit signature in one call, skipping a separate approve step.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		amount, err := parseAmount(cmd, "amount")
		if err != nil {
			return err
		}
		deadline, err := cmd.Flags().GetUint64("permit-deadline")
		if err != nil {
			return err
		}
		if deadline == 0 {
			deadline = uint64(time.Now().Add(time.Hour).Unix())
		}

		synapse, err := loadSynapse(cmd.Context(), storagecontext.Callbacks{})
		if err != nil {
			return err
		}
		tx, err := synapse.Payments.DepositWithPermit(cmd.Context(), amount, new(big.Int).SetUint64(deadline))
		if err != nil {
			return fmt.Errorf("depositing: %w", err)
		}
		return reportTx(cmd, tx)
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw tokens from the payments account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		amount, err := parseAmount(cmd, "amount")
		if err != nil {
			return err
		}
		synapse, err := loadSynapse(cmd.Context(), storagecontext.Callbacks{})
		if err != nil {
			return err
		}
		tx, err := synapse.Payments.Withdraw(cmd.Context(), amount)
		if err != nil {
			return fmt.Errorf("withdrawing: %w", err)
		}
		return reportTx(cmd, tx)
	},
}

var approveServiceCmd = &cobra.Command{
	Use:   "approve-service",
	Short: "Approve the warm storage service as a payment rail operator",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rateAllowance, err := parseAmount(cmd, "rate-allowance")
		if err != nil {
			return err
		}
		lockupAllowance, err := parseAmount(cmd, "lockup-allowance")
		if err != nil {
			return err
		}
		maxLockupPeriod, err := parseAmount(cmd, "max-lockup-period")
		if err != nil {
			return err
		}

		synapse, err := loadSynapse(cmd.Context(), storagecontext.Callbacks{})
		if err != nil {
			return err
		}
		operator := synapse.Adapter.Addresses.Service
		tx, err := synapse.Payments.ApproveService(cmd.Context(), operator, rateAllowance, lockupAllowance, maxLockupPeriod)
		if err != nil {
			return fmt.Errorf("approving service: %w", err)
		}
		return reportTx(cmd, tx)
	},
}

var settleCmd = &cobra.Command{
	Use:   "settle",
	Short: "Settle a payment rail up to an epoch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		railID, err := parseAmount(cmd, "rail-id")
		if err != nil {
			return err
		}
		untilEpoch, err := parseAmount(cmd, "until-epoch")
		if err != nil {
			return err
		}
		synapse, err := loadSynapse(cmd.Context(), storagecontext.Callbacks{})
		if err != nil {
			return err
		}
		tx, err := synapse.Payments.Settle(cmd.Context(), railID, untilEpoch)
		if err != nil {
			return fmt.Errorf("settling rail: %w", err)
		}
		return reportTx(cmd, tx)
	},
}

func parseAmount(cmd *cobra.Command, flag string) (*big.Int, error) {
	s, err := cmd.Flags().GetString(flag)
	if err != nil {
		return nil, err
	}
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid --%s value: %q (must be a base-10 integer)", flag, s)
	}
	return amount, nil
}

// reportTx waits for one inclusion confirmation and prints the transaction
// hash. Command output stays plain text per this CLI's texture: no JSON or
// TUI rendering, unlike the admin client's payment-status command.
func reportTx(cmd *cobra.Command, tx *chain.TxHandle) error {
	fmt.Fprintf(cmd.OutOrStdout(), "Transaction: %s\n", tx.Hash.Hex())
	receipt, err := tx.Wait(cmd.Context(), 1)
	if err != nil {
		return fmt.Errorf("waiting for confirmation: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Confirmed in block %d\n", receipt.BlockNumber.Uint64())
	return nil
}
