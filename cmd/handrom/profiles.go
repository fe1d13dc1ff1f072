package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/handrom/internal/clinical"
	"github.com/ayusman/handrom/internal/joint"
	"github.com/ayusman/handrom/internal/store"
)

var errNoProfileDB = errors.New("no profile database configured (set profiles.db)")

func newProfilesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Inspect and manage injury profiles",
	}
	cmd.AddCommand(newProfilesListCmd(c), newProfilesImportCmd(c), newProfilesDeleteCmd(c))
	return cmd
}

func newProfilesListCmd(c *cli) *cobra.Command {
	var injury string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the effective joint targets per injury",
		Long: `Lists the built-in targets merged with the configured profile file and
profile database, the same table used for interpretation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, release, err := c.engine()
			if err != nil {
				return err
			}
			defer release()
			return printTable(cmd, e.Classifier().Table(), injury)
		},
	}
	cmd.Flags().StringVarP(&injury, "injury", "i", "", "only list this injury")
	return cmd
}

func printTable(cmd *cobra.Command, t clinical.Table, only string) error {
	if only != "" {
		if _, ok := t[only]; !ok {
			return fmt.Errorf("unknown injury %q", only)
		}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INJURY\tJOINT\tNORMAL MIN\tNORMAL MAX\tTARGET")
	for _, injury := range t.Injuries() {
		if only != "" && injury != only {
			continue
		}
		for _, id := range joint.All() {
			tg, ok := t[injury][id]
			if !ok {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\n", injury, id, tg.NormalMin, tg.NormalMax, tg.TargetValue)
		}
	}
	return w.Flush()
}

func newProfilesImportCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "import [profiles.toml]",
		Short: "Import a TOML profile table into the profile database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := clinical.LoadTable(args[0])
			if err != nil {
				return err
			}
			return c.withStore(func(s *store.Store) error {
				n, err := s.Profiles().ImportTable(t)
				if err != nil {
					return fmt.Errorf("import failed: %w", err)
				}
				c.log.Info().Int("targets", n).Str("file", args[0]).Msg("imported profiles")
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d targets for %d injuries.\n", n, len(t))
				return nil
			})
		},
	}
}

func newProfilesDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [injury]",
		Short: "Delete a stored injury profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(func(s *store.Store) error {
				if err := s.Profiles().DeleteInjury(args[0]); err != nil {
					if errors.Is(err, store.ErrNotFound) {
						return fmt.Errorf("injury %q is not stored", args[0])
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
				return nil
			})
		},
	}
}

func (c *cli) withStore(fn func(*store.Store) error) error {
	if c.settings.Profiles.DB == "" {
		return errNoProfileDB
	}
	s, err := store.New(c.settings.Profiles.DB)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}
