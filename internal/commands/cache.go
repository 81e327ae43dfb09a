package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCacheCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or reset the local template cache",
	}
	cmd.AddCommand(
		newCacheActionCmd(flags, "stats", "Show cache statistics"),
		newCacheActionCmd(flags, "clear", "Remove every cached entry"),
		newCacheActionCmd(flags, "prune", "Remove expired entries"),
	)
	return cmd
}

func newCacheActionCmd(flags *globalFlags, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, cleanup, err := flags.loadDeps(cmd, nil)
			if err != nil {
				return err
			}
			defer cleanup()
			if deps.Cache == nil {
				return errors.New("cache is disabled")
			}

			ctx := commandContext(cmd)
			out := cmd.OutOrStdout()
			switch action {
			case "clear":
				n, err := deps.Cache.Clear(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "removed %d entries\n", n)
			case "prune":
				n, err := deps.Cache.Prune(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "removed %d expired entries\n", n)
			default:
				st, err := deps.Cache.Stats(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "path:          %s\n", st.Path)
				fmt.Fprintf(out, "templates:     %d\n", st.Templates)
				fmt.Fprintf(out, "class entries: %d\n", st.ClassEntries)
				fmt.Fprintf(out, "expired:       %d\n", st.ExpiredEntries)
				fmt.Fprintf(out, "ttl:           %s\n", time.Duration(st.TTLSeconds)*time.Second)
			}
			return nil
		},
	}
}
