package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-h2h/internal/archive"
	"github.com/pable/go-h2h/internal/report"
)

var verifyOut string

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check an archive for consistency",
	Long: `Walk the pair tree and check that every pair document is canonically oriented,
that its wins, losses and draws add up, that the match count agrees with the stored
matches (across chunks), and that every opponent index agrees with its pair.`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyOut, "out", "o", "", "archive directory (default from config)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	v, err := archive.Verify(archiveDir(verifyOut))
	if err != nil {
		return err
	}
	report.PrintVerification(os.Stdout, v)
	if !v.OK() {
		return fmt.Errorf("archive has %d problems", len(v.Problems))
	}
	return nil
}
