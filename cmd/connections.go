package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pidev-project/pidev/pkg/models"
)

var (
	addHost     string
	addPort     int
	addUser     string
	addPassword string
	addKeyPath  string
	addDefault  bool
)

var connectionsCmd = &cobra.Command{
	Use:   "connections",
	Short: "Manage the stored device connections",
}

var connectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		list, err := store.Load()
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("no connections configured")
			return nil
		}
		for _, conn := range list {
			marker := " "
			if conn.IsDefault {
				marker = "*"
			}
			fmt.Printf("%s %-20s %s@%s:%d\n",
				marker, conn.Name, conn.User, conn.Host, conn.EffectivePort())
		}
		return nil
	},
}

var connectionsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or replace a connection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		conn := models.ConnectionDescriptor{
			Name:           args[0],
			Host:           addHost,
			Port:           addPort,
			User:           addUser,
			Password:       addPassword,
			PrivateKeyPath: addKeyPath,
			IsDefault:      addDefault,
		}
		if err := store.Add(conn); err != nil {
			return err
		}
		fmt.Printf("stored connection %q\n", conn.Name)
		return nil
	},
}

var connectionsRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a connection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		return store.Remove(args[0])
	},
}

var connectionsSetDefaultCmd = &cobra.Command{
	Use:   "set-default <name>",
	Short: "Flag a connection as the default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		return store.SetDefault(args[0])
	},
}

func init() {
	connectionsAddCmd.Flags().StringVar(&addHost, "host", "", "host name or IP address")
	connectionsAddCmd.Flags().IntVar(&addPort, "port", models.DefaultSSHPort, "SSH port")
	connectionsAddCmd.Flags().StringVar(&addUser, "user", "pi", "SSH user")
	connectionsAddCmd.Flags().StringVar(&addPassword, "pass", "", "SSH password")
	connectionsAddCmd.Flags().StringVar(&addKeyPath, "key", "", "private key path")
	connectionsAddCmd.Flags().BoolVar(&addDefault, "default", false, "flag as the default connection")
	_ = connectionsAddCmd.MarkFlagRequired("host")

	connectionsCmd.AddCommand(connectionsListCmd)
	connectionsCmd.AddCommand(connectionsAddCmd)
	connectionsCmd.AddCommand(connectionsRemoveCmd)
	connectionsCmd.AddCommand(connectionsSetDefaultCmd)
	rootCmd.AddCommand(connectionsCmd)
}
