package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pidev-project/pidev/pkg/logger"
)

var connectForcePassword bool

var connectCmd = &cobra.Command{
	Use:   "connect [connection]",
	Short: "Test a connection and show the device status",
	Long: `Connects to the named connection (or the default one), runs the
status probe and prints what was found. Provisions an SSH key pair when the
connection has none.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) > 0 {
			name = args[0]
		}

		sess, store, err := connectSession(cmd.Context(), name, connectForcePassword)
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := persistDescriptor(sess, store); err != nil {
			logger.Get().Warnf("failed to persist updated key paths: %v", err)
		}

		status := sess.Status()
		desc := sess.Descriptor()
		fmt.Printf("Connection:   %s\n", desc.DisplayName())
		fmt.Printf("Board:        %s (rev %s)\n", status.BoardModel, status.BoardRevision)
		fmt.Printf("Architecture: %s\n", status.Architecture)
		fmt.Printf("Debugger:     %s\n", presence(status.HasDebugger))
		if len(status.InstalledSdks) == 0 {
			fmt.Println("SDKs:         none")
		} else {
			fmt.Print("SDKs:         ")
			for i, sdk := range status.InstalledSdks {
				if i > 0 {
					fmt.Print(", ")
				}
				fmt.Print(sdk.Name)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	connectCmd.Flags().
		BoolVar(&connectForcePassword, "password", false, "authenticate with the password even when a key is configured")
	rootCmd.AddCommand(connectCmd)
}

func presence(ok bool) string {
	if ok {
		return "installed"
	}
	return "not installed"
}
