package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pidev-project/pidev/pkg/models"
)

var sdksArch string

var sdksCmd = &cobra.Command{
	Use:   "sdks",
	Short: "List installable .NET SDKs from the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}

		arch := models.Architecture(sdksArch)
		for _, sdk := range cat.Good() {
			if arch != models.ArchitectureUnknown && sdk.Architecture != arch {
				continue
			}
			fmt.Printf("%-10s %s\n", sdk.Name, sdk.Architecture)
		}
		return nil
	},
}

func init() {
	sdksCmd.Flags().StringVar(&sdksArch, "arch", "", "filter by architecture (arm32 or arm64)")
	rootCmd.AddCommand(sdksCmd)
}
