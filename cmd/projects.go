package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pidev-project/pidev/pkg/projects"
)

var (
	projectEnabled    bool
	projectConnection string
	projectGroup      string
	projectProxyMode  string
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage per-project deployment settings",
}

var projectsShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Show the stored settings for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := openProjectsFile()
		if err != nil {
			return err
		}
		s, err := file.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("enabled:     %t\n", s.Enabled)
		fmt.Printf("connection:  %s\n", s.Connection)
		if s.TargetGroup != "" {
			fmt.Printf("group:       %s\n", s.TargetGroup)
		}
		if s.ProxyMode != "" {
			fmt.Printf("proxy mode:  %s\n", s.ProxyMode)
		}
		return nil
	},
}

var projectsSetCmd = &cobra.Command{
	Use:   "set <project-id>",
	Short: "Store deployment settings for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := openProjectsFile()
		if err != nil {
			return err
		}

		// Start from what is stored so unset flags keep their values.
		s, err := file.Get(args[0])
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("enabled") {
			s.Enabled = projectEnabled
		}
		if cmd.Flags().Changed("connection") {
			s.Connection = projectConnection
		}
		if cmd.Flags().Changed("group") {
			s.TargetGroup = projectGroup
		}
		if cmd.Flags().Changed("proxy-mode") {
			s.ProxyMode = projectProxyMode
		}

		if err := file.Set(args[0], s); err != nil {
			return err
		}
		fmt.Printf("stored settings for %q\n", args[0])
		return nil
	},
}

func openProjectsFile() (*projects.File, error) {
	path := viper.GetString("general.projects_path")
	if path == "" {
		var err error
		path, err = projects.DefaultFilePath()
		if err != nil {
			return nil, err
		}
	}
	return projects.NewFile(path), nil
}

func init() {
	projectsSetCmd.Flags().
		BoolVar(&projectEnabled, "enabled", false, "enable remote deployment for the project")
	projectsSetCmd.Flags().
		StringVar(&projectConnection, "connection", "", "target connection name")
	projectsSetCmd.Flags().
		StringVar(&projectGroup, "group", "", "group to own the deployed files")
	projectsSetCmd.Flags().
		StringVar(&projectProxyMode, "proxy-mode", "", "debugger transport proxy mode")

	projectsCmd.AddCommand(projectsShowCmd)
	projectsCmd.AddCommand(projectsSetCmd)
	rootCmd.AddCommand(projectsCmd)
}
