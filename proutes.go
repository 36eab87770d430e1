package rakuda

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// PrintRoutes prints a formatted table of every route registered on app,
// in registration order.
func PrintRoutes(w io.Writer, app *App) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	for _, key := range app.store.Routes() {
		fmt.Fprintf(tw, "%s\t%s\n", key.Method, key.Path)
	}
}
