package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/varoOP/metasync/internal/app"
	"github.com/varoOP/metasync/internal/domain"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Resolve a title to its provider id",
	Long: `Resolve a movie title to its TMDB id or a series title to its TVDB id.
Results, including misses, are cached for 30 days. Provider failures are not
cached and print an empty id.`,
}

func newLookupCmd(class domain.ItemClass, use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <title>",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := yearFlag(cmd)
			if err != nil {
				return err
			}
			title := strings.Join(args, " ")

			return withApp(func(a *app.App) error {
				res, err := a.Lookup(cmd.Context(), class, title, year)
				if err != nil {
					return err
				}
				return printOutput(cmd, res)
			})
		},
	}
	cmd.Flags().Int("year", 0, "release year (0 for unknown)")
	return cmd
}

func yearFlag(cmd *cobra.Command) (*int, error) {
	year, err := cmd.Flags().GetInt("year")
	if err != nil {
		return nil, err
	}
	if year <= 0 {
		return nil, nil
	}
	return &year, nil
}

func init() {
	lookupCmd.AddCommand(newLookupCmd(domain.ClassMovies, "movie", "Look up the TMDB id of a movie"))
	lookupCmd.AddCommand(newLookupCmd(domain.ClassSeries, "series", "Look up the TVDB id of a series"))
	rootCmd.AddCommand(lookupCmd)
}
