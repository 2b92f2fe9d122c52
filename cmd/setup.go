package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pidev-project/pidev/pkg/logger"
)

var (
	setupSdkVersion   string
	setupSkipSdk      bool
	setupSkipDebugger bool
)

var setupCmd = &cobra.Command{
	Use:   "setup [connection]",
	Short: "Install the .NET SDK and the vsdbg debugger on a device",
	Long: `Ensures the toolchain is present on the device: the .NET SDK
(the newest known-good version for the device architecture unless --sdk
picks one) and the vsdbg remote debugger. Both steps are idempotent and
skip work that is already done.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) > 0 {
			name = args[0]
		}

		sess, store, err := connectSession(cmd.Context(), name, false)
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := persistDescriptor(sess, store); err != nil {
			logger.Get().Warnf("failed to persist updated key paths: %v", err)
		}

		if !setupSkipSdk {
			ok, err := sess.InstallSdk(cmd.Context(), setupSdkVersion)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("SDK install failed on %s, see log for details",
					sess.Descriptor().Host)
			}
			fmt.Println("SDK ready")
		}

		if !setupSkipDebugger {
			ok, err := sess.InstallDebugger(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("debugger install failed on %s, see log for details",
					sess.Descriptor().Host)
			}
			fmt.Println("debugger ready")
		}

		return nil
	},
}

func init() {
	setupCmd.Flags().
		StringVar(&setupSdkVersion, "sdk", "", "SDK version to install (default: newest known-good for the device)")
	setupCmd.Flags().
		BoolVar(&setupSkipSdk, "skip-sdk", false, "do not install the SDK")
	setupCmd.Flags().
		BoolVar(&setupSkipDebugger, "skip-debugger", false, "do not install the debugger")
	rootCmd.AddCommand(setupCmd)
}
