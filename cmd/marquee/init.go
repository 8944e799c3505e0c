package main

import (
	"github.com/spf13/cobra"

	initcmd "github.com/lekki-ent/marquee/internal/init"
)

func (c *cli) initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold marquee configuration for this project",
		Long: `Write .marquee/config.yaml with the built-in defaults, an editable copy of
the event catalog at .marquee/events.yaml and a managed block in .gitignore
for the log, socket and PID files marquee serve creates.

Files that already exist and differ are shown as a diff and left alone
unless --force is given; --force keeps a timestamped backup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			opts := initcmd.Options{Writer: cmd.OutOrStdout()}
			opts.DryRun, _ = flags.GetBool(FlagDryRun)
			opts.Force, _ = flags.GetBool(FlagForce)
			opts.Minimal, _ = flags.GetBool(FlagMinimal)
			opts.Global, _ = flags.GetBool(FlagGlobal)

			_, err := initcmd.Run(opts)
			return err
		},
	}

	cmd.Flags().Bool(FlagDryRun, false, "Show what would be written without writing")
	cmd.Flags().Bool(FlagForce, false, "Overwrite changed files (keeps a backup)")
	cmd.Flags().Bool(FlagMinimal, false, "Only write the config file; keep the built-in catalog")
	cmd.Flags().Bool(FlagGlobal, false, "Write ~/.config/marquee/config.yaml instead of project files")
	return cmd
}
