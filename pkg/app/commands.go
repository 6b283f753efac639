package app

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/retromusic/storefront/pkg/router"
)

// WriteRoutes prints every registered route as a table.
func (a *Application) WriteRoutes(w io.Writer) error {
	return PrintRoutes(w, a.Router().Routes())
}

// PrintRoutes writes routes as METHOD / PATH / NAME columns.
func PrintRoutes(w io.Writer, routes []router.Route) error {
	if len(routes) == 0 {
		_, err := fmt.Fprintln(w, "No routes registered.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tPATH\tNAME")
	fmt.Fprintln(tw, "------\t----\t----")
	for _, r := range routes {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Method, r.Path, r.Name)
	}
	return tw.Flush()
}
