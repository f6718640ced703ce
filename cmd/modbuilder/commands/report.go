package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"

	"git.home.luguber.info/inful/modbuilder/internal/build"
)

// printReport summarizes a finished build.
func printReport(w io.Writer, res *build.Result) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	name := ""
	if res.Project != nil {
		name = res.Project.Name
	}
	cyan.Fprintf(w, "\n=== %s ===\n\n", name)

	kinds := make([]string, 0, len(res.Counts))
	for k := range res.Counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-10s %d\n", k, res.Counts[k])
	}
	fmt.Fprintf(w, "  %-10s %d\n", "assets", res.Walk.Assets)

	if n := res.Resolve.Pruned + res.Resolve.Filtered; n > 0 {
		fmt.Fprintf(w, "\n  Removed %d entities (%d filtered by target, %d empty groups)\n",
			n, res.Resolve.Filtered, res.Resolve.Pruned)
	}

	if res.Warnings() == 0 {
		fmt.Fprint(w, "\n")
		green.Fprintf(w, "No problems found (%s)\n", res.Duration.Round(time.Millisecond))
		return
	}

	fmt.Fprint(w, "\n")
	yellow.Fprintf(w, "%d warning(s):\n", res.Warnings())
	if res.Walk.Warnings > 0 {
		fmt.Fprintf(w, "  %d document problem(s) (invalid blocks or missing covers)\n", res.Walk.Warnings)
	}
	for _, tok := range res.Resolve.Unresolved {
		fmt.Fprintf(w, "  unknown parent %q\n", tok)
	}
	for _, f := range res.Findings {
		fmt.Fprintf(w, "  %s: broken link %s", f.Page, f.Href)
		if f.Suggestion != "" {
			fmt.Fprintf(w, " (did you mean %q?)", f.Suggestion)
		}
		fmt.Fprint(w, "\n")
	}
}
