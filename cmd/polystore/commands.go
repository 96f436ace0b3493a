package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/polystore/v1/query"
	"github.com/Aleph-Alpha/polystore/v1/store"
)

func newInsertCmd(s *settings) *cobra.Command {
	var (
		format  string
		objects []string
	)
	cmd := &cobra.Command{
		Use:   "insert [files...]",
		Short: "Insert objects from JSON or YAML files into the collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(objects) == 0 {
				return fmt.Errorf("nothing to insert, give files or --object")
			}
			ctx := cmd.Context()
			c, err := s.collection(ctx)
			if err != nil {
				return err
			}

			for _, path := range args {
				objs, err := loadObjects(path, format)
				if err != nil {
					return err
				}
				if err := c.Insert(ctx, objs...); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d objects from %s into collection '%s'.\n", len(objs), path, c.Name())
			}
			for _, text := range objects {
				objs, err := parseObjects(text)
				if err != nil {
					return fmt.Errorf("invalid object %q: %w", text, err)
				}
				if err := c.Insert(ctx, objs...); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d objects from %s into collection '%s'.\n", len(objs), text, c.Name())
			}
			return c.Database().Commit(ctx)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Input format (json or yaml), default from the file extension")
	cmd.Flags().StringArrayVarP(&objects, "object", "i", nil, "Input object or list of objects as YAML")
	return cmd
}

func newQueryCmd(s *settings) *cobra.Command {
	var (
		where, outputType, output string
		limit, offset             int
		selectFields, sortFields  []string
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query objects in the collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, err := parseWhere(where)
			if err != nil {
				return err
			}
			c, err := s.collection(ctx)
			if err != nil {
				return err
			}

			q := query.New(c.Name()).
				WithWhere(w).
				WithSelect(selectFields...).
				WithSort(parseSort(sortFields)...).
				WithLimit(limit).
				WithOffset(offset)
			res, err := c.Query(ctx, q)
			if err != nil {
				return err
			}
			s.debug("Query executed", map[string]interface{}{"collection": c.Name(), "num_rows": res.NumRows})
			return emit(cmd.OutOrStdout(), res.Rows, outputType, output)
		},
	}
	cmd.Flags().StringVarP(&where, "where", "w", "", "Filter as YAML, e.g. '{name: John}'")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum number of results, 0 for all")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of results to skip")
	cmd.Flags().StringSliceVarP(&selectFields, "select", "s", nil, "Fields to return")
	cmd.Flags().StringSliceVar(&sortFields, "sort", nil, "Fields to sort by, prefix with - for descending")
	cmd.Flags().StringVarP(&outputType, "output-type", "O", formatJSON, "Output format (json or yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path")
	return cmd
}

func parseSort(fields []string) []query.SortField {
	out := make([]query.SortField, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if strings.HasPrefix(f, "-") {
			out = append(out, query.SortField{Field: f[1:], Desc: true})
			continue
		}
		out = append(out, query.SortField{Field: f})
	}
	return out
}

func newListCollectionsCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "list-collections",
		Short: "List the collections of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := s.database(cmd.Context())
			if err != nil {
				return err
			}
			names, err := db.ListCollectionNames(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func newSearchCmd(s *settings) *cobra.Command {
	var (
		where, outputType, output string
		limit                     int
	)
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Rank the collection's objects by similarity to a search term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, err := parseWhere(where)
			if err != nil {
				return err
			}
			c, err := s.collection(ctx)
			if err != nil {
				return err
			}
			searcher, ok := c.(store.Searcher)
			if !ok {
				return fmt.Errorf("collection %s cannot be searched: %w", c.Name(), store.ErrNotImplemented)
			}
			hits, err := searcher.Search(ctx, args[0], w, limit)
			if err != nil {
				return err
			}

			rows := make([]map[string]any, len(hits))
			for i, h := range hits {
				row := make(map[string]any, len(h.Object)+1)
				for k, v := range h.Object {
					row[k] = v
				}
				row["score"] = h.Score
				rows[i] = row
			}
			return emit(cmd.OutOrStdout(), rows, outputType, output)
		},
	}
	cmd.Flags().StringVarP(&where, "where", "w", "", "Filter as YAML")
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Maximum number of results, 0 for all")
	cmd.Flags().StringVarP(&outputType, "output-type", "O", formatJSON, "Output format (json or yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path")
	return cmd
}

func newSchemaCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Show the schema view of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := s.database(cmd.Context())
			if err != nil {
				return err
			}
			b, err := db.SchemaView().Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
}

func newDropCmd(s *settings) *cobra.Command {
	var missingOK bool
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop the collection given with --collection, or the whole database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if name := s.collectionName(); name != "" {
				db, err := s.database(ctx)
				if err != nil {
					return err
				}
				c, err := db.GetCollection(ctx, name, false)
				if err != nil {
					if missingOK && store.IsNotFound(err) {
						return nil
					}
					return err
				}
				if err := c.Drop(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Dropped collection '%s'.\n", name)
				return nil
			}

			name := s.databaseName()
			if name == "" {
				db, err := s.client.Database(ctx)
				if err != nil {
					return err
				}
				name = db.Alias()
			}
			if err := s.client.DropDatabase(ctx, name, missingOK); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dropped database '%s'.\n", name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&missingOK, "missing-ok", false, "Do not fail when the target does not exist")
	return cmd
}
