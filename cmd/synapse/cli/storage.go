package cli

import (
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/spf13/cobra"

	"github.com/FilOzone/synapse-sdk-go/pkg/manager"
	"github.com/FilOzone/synapse-sdk-go/pkg/storagecontext"
	"github.com/FilOzone/synapse-sdk-go/pkg/types"
)

func init() {
	uploadCmd.Flags().String("file", "", "path to the file to upload")
	cobra.CheckErr(uploadCmd.MarkFlagRequired("file"))
	uploadCmd.Flags().Bool("with-cdn", false, "bind the upload to a CDN-enabled data set")
	uploadCmd.Flags().Bool("force-create", false, "force creating a new data set rather than reusing one")

	downloadCmd.Flags().String("piece-cid", "", "piece CID to fetch")
	cobra.CheckErr(downloadCmd.MarkFlagRequired("piece-cid"))
	downloadCmd.Flags().String("out", "", "output file path (default: stdout)")
	downloadCmd.Flags().Bool("with-cdn", false, "skip the default-context fast path and fetch without a provider hint")

	preflightCmd.Flags().String("size", "", "payload size in bytes")
	cobra.CheckErr(preflightCmd.MarkFlagRequired("size"))
	preflightCmd.Flags().Int("lockup-days", 0, "lockup window in days (default: payments.DefaultLockupDays)")
}

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a file to the default storage context",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := cmd.Flags().GetString("file")
		if err != nil {
			return err
		}
		withCDN, err := cmd.Flags().GetBool("with-cdn")
		if err != nil {
			return err
		}
		forceCreate, err := cmd.Flags().GetBool("force-create")
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		cb := storagecontext.Callbacks{
			OnProviderSelected: func(p *types.Provider) {
				if p != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "selected provider %s\n", p.Address.Hex())
				}
			},
		}
		synapse, err := loadSynapse(cmd.Context(), cb)
		if err != nil {
			return err
		}

		result, err := synapse.Upload(cmd.Context(), f, info.Size(), manager.UploadOptions{
			WithCDN:     withCDN,
			ForceCreate: forceCreate,
		})
		if err != nil {
			return fmt.Errorf("uploading: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Piece CID: %s\n", result.PieceCID.String())
		fmt.Fprintf(cmd.OutOrStdout(), "Piece ID:  %d\n", result.PieceID)
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download a piece by its piece CID",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		pieceCID, err := cmd.Flags().GetString("piece-cid")
		if err != nil {
			return err
		}
		out, err := cmd.Flags().GetString("out")
		if err != nil {
			return err
		}
		withCDN, err := cmd.Flags().GetBool("with-cdn")
		if err != nil {
			return err
		}

		synapse, err := loadSynapse(cmd.Context(), storagecontext.Callbacks{})
		if err != nil {
			return err
		}

		body, size, err := synapse.Download(cmd.Context(), pieceCID, manager.DownloadOptions{WithCDN: withCDN})
		if err != nil {
			return fmt.Errorf("downloading: %w", err)
		}
		defer body.Close()
		fmt.Fprintf(cmd.ErrOrStderr(), "fetched %d bytes\n", size)

		dest := cmd.OutOrStdout()
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			defer f.Close()
			dest = f
		}
		if _, err := io.Copy(dest, body); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		return nil
	},
}

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Estimate the allowance an upload of a given size would require",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sizeStr, err := cmd.Flags().GetString("size")
		if err != nil {
			return err
		}
		size, ok := new(big.Int).SetString(sizeStr, 10)
		if !ok {
			return fmt.Errorf("invalid --size value: %q", sizeStr)
		}
		lockupDays, err := cmd.Flags().GetInt("lockup-days")
		if err != nil {
			return err
		}

		synapse, err := loadSynapse(cmd.Context(), storagecontext.Callbacks{})
		if err != nil {
			return err
		}

		result, err := synapse.PreflightUpload(cmd.Context(), size, manager.PreflightOptions{LockupDays: lockupDays})
		if err != nil {
			return fmt.Errorf("estimating cost: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Per epoch: %s\n", result.EstimatedCost.PerEpoch)
		fmt.Fprintf(cmd.OutOrStdout(), "Per day:   %s\n", result.EstimatedCost.PerDay)
		fmt.Fprintf(cmd.OutOrStdout(), "Per month: %s\n", result.EstimatedCost.PerMonth)
		fmt.Fprintf(cmd.OutOrStdout(), "Sufficient allowance: %t\n", result.AllowanceCheck.Sufficient)
		if result.AllowanceCheck.Message != "" {
			fmt.Fprintln(cmd.OutOrStdout(), result.AllowanceCheck.Message)
		}
		return nil
	},
}
