package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tendant/simple-cmis/pkg/cmis/query"
	"github.com/tendant/simple-cmis/pkg/cmis/typedef"
)

// NewTypesCommand creates the types command
func NewTypesCommand() *cobra.Command {
	var depth int
	var withProps bool

	cmd := &cobra.Command{
		Use:   "types [type-id]",
		Short: "Print the type hierarchy",
		Long:  `Print the type tree below type-id, or below the base types when no id is given.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry(cmd)
			if err != nil {
				return err
			}
			typeID := ""
			if len(args) == 1 {
				typeID = args[0]
			}
			tree, err := reg.Descendants(typeID, depth, withProps)
			if err != nil {
				return err
			}
			printTypes(cmd.OutOrStdout(), tree, 0, withProps)
			return nil
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "d", -1, "levels to print, -1 for all")
	cmd.Flags().BoolVar(&withProps, "properties", false, "list property definitions under each type")

	return cmd
}

func printTypes(w io.Writer, tree []*typedef.TypeContainer, level int, withProps bool) {
	indent := strings.Repeat("  ", level)
	for _, c := range tree {
		t := c.Type
		fmt.Fprintf(w, "%s%s (%s)\n", indent, t.ID, t.QueryName)
		if withProps {
			for _, id := range t.PropertyIDs() {
				d := t.PropertyDefinitions[id]
				fmt.Fprintf(w, "%s    - %s %s %s\n", indent, id, d.PropertyType, d.Cardinality)
			}
		}
		printTypes(w, c.Children, level+1, withProps)
	}
}

// NewExplainCommand creates the explain command
func NewExplainCommand() *cobra.Command {
	var noFullText bool

	cmd := &cobra.Command{
		Use:   "explain <statement>",
		Short: "Show how a query statement binds",
		Long: `Compile a CMIS query statement against the loaded types and print the
FROM types, projected columns, ORDER BY and normalized WHERE clause.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry(cmd)
			if err != nil {
				return err
			}
			q, err := query.Compile(args[0], reg, query.WithFullText(!noFullText))
			if err != nil {
				return err
			}
			explain(cmd.OutOrStdout(), q)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noFullText, "no-fulltext", false, "reject CONTAINS as an unsupported full-text repository would")

	return cmd
}

func explain(out io.Writer, q *query.QueryObject) {
	if t := q.MainType(); t != nil {
		fmt.Fprintf(out, "Main type: %s (%s)\n", t.ID, t.QueryName)
	}

	fmt.Fprintln(out, "Columns:")
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  LABEL\tQUERY NAME\tPROPERTY\tTYPE")
	for _, c := range q.Columns() {
		prop := c.PropertyID
		if c.Function != "" {
			prop = c.Function + "()"
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", c.Label, c.QueryName, prop, c.TypeID)
	}
	w.Flush()

	if orderBy := q.OrderBy(); len(orderBy) > 0 {
		parts := make([]string, 0, len(orderBy))
		for _, o := range orderBy {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts = append(parts, o.Ref.PropertyID+" "+dir)
		}
		fmt.Fprintf(out, "Order by: %s\n", strings.Join(parts, ", "))
	}

	if where := q.Where(); where != nil {
		fmt.Fprintf(out, "Where: %s\n", query.Format(where))
	}
}
