package cli

import (
	"github.com/spf13/cobra"

	"github.com/astroconsult/consult-server-go/internal/geo"
)

func newPlaceCmd(a *app) *cobra.Command {
	var nominatim bool

	cmd := &cobra.Command{
		Use:   "place <query>",
		Short: "Look up a birth place and its chart coordinates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resolver geo.Searcher = geo.NewStaticResolver()
			if nominatim {
				resolver = geo.NewNominatimResolver("", "consultctl/"+Version)
			}

			places, err := resolver.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(places) == 0 {
				a.printf("No places found.\n")
				return nil
			}
			for _, p := range places {
				a.printf("%-24s %-8s %-8s %s, %s\n", p.Name, p.LatitudeDMS(), p.LongitudeDMS(), p.State, p.Country)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&nominatim, "nominatim", false, "search OpenStreetMap instead of the built-in list")
	return cmd
}
