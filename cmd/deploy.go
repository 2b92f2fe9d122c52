package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pidev-project/pidev/pkg/logger"
)

var (
	deployProgram  string
	deployAssembly string
	deployPublish  string
	deployGroup    string
	deployWaitPort int
	deployWaitTime time.Duration
)

var deployCmd = &cobra.Command{
	Use:   "deploy [connection]",
	Short: "Upload a published program to a device",
	Long: `Packages the publish folder, uploads it and atomically replaces
~/vsdbg/<program> on the device. With --wait-port the command waits until
the given TCP port is listening, which signals that a deployed web app came
up; a timeout is reported but is not a failure.`,
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

		ok, err := sess.UploadProgram(
			cmd.Context(), deployProgram, deployAssembly, deployPublish, deployGroup)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("deploy failed on %s, see log for details",
				sess.Descriptor().Host)
		}
		desc := sess.Descriptor()
	fmt.Printf("deployed %s to %s\n", deployProgram, desc.DisplayName())

		if deployWaitPort > 0 {
			listening, err := sess.WaitForPort(cmd.Context(), deployWaitPort, deployWaitTime)
			if err != nil {
				return err
			}
			if listening {
				fmt.Printf("port %d is listening\n", deployWaitPort)
			} else {
				fmt.Printf("port %d did not start listening within %s\n",
					deployWaitPort, deployWaitTime)
			}
		}
		return nil
	},
}

func init() {
	deployCmd.Flags().StringVar(&deployProgram, "program", "", "remote program directory name")
	deployCmd.Flags().StringVar(&deployAssembly, "assembly", "", "entry assembly name")
	deployCmd.Flags().StringVar(&deployPublish, "publish", "", "local publish folder")
	deployCmd.Flags().
		StringVar(&deployGroup, "group", "", "group to own the uploaded files (e.g. gpio)")
	deployCmd.Flags().
		IntVar(&deployWaitPort, "wait-port", 0, "wait for this TCP port to start listening after deploy")
	deployCmd.Flags().
		DurationVar(&deployWaitTime, "wait-timeout", 30*time.Second, "how long to wait for --wait-port")
	_ = deployCmd.MarkFlagRequired("program")
	_ = deployCmd.MarkFlagRequired("assembly")
	_ = deployCmd.MarkFlagRequired("publish")
	rootCmd.AddCommand(deployCmd)
}
