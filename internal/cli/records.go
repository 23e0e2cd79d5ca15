package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kochabx/carelink/errors"
	"github.com/kochabx/carelink/service/auth"
	"github.com/kochabx/carelink/service/records"
)

// createdByField names the owner of a record as stored by the backend.
const createdByField = "created_by"

var errNotJSONList = errors.BadRequest("batch input must be a JSON array or one JSON object per line")

func (c *CLI) recordsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "records",
		Aliases: []string{"r"},
		Short:   "Work with record collections",
		Long: "Work with record collections. COLLECTION is one of " +
			strings.Join(collectionNames(), ", ") + ".",
	}
	cmd.AddCommand(
		c.recordsListCommand(),
		c.recordsGetCommand(),
		c.recordsCreateCommand(),
		c.recordsExportCommand(),
		c.recordsSubmitBatchCommand(),
	)
	return cmd
}

func collectionNames() []string {
	names := make([]string, 0, 3)
	for _, p := range []string{records.HealthReports, records.Observations, records.FamilyMembers} {
		names = append(names, strings.TrimPrefix(p, "/"))
	}
	return names
}

// resource resolves a collection argument like "observations" and connects.
func (c *CLI) resource(cmd *cobra.Command, collection string) (*records.Resource, error) {
	path := "/" + strings.Trim(collection, "/")
	client, err := c.connect(cmd, path)
	if err != nil {
		return nil, err
	}
	return records.New(client, path), nil
}

type queryFlags struct {
	page    int
	limit   int
	search  string
	sort    string
	filters map[string]string
}

func (q *queryFlags) register(cmd *cobra.Command, paging bool) {
	flags := cmd.Flags()
	if paging {
		flags.IntVar(&q.page, "page", 1, "page number")
		flags.IntVar(&q.limit, "limit", records.DefaultLimit, "items per page")
	}
	flags.StringVarP(&q.search, "search", "s", "", "free text search")
	flags.StringVar(&q.sort, "sort", "", "sort field, prefix with - for descending")
	flags.StringToStringVarP(&q.filters, "filter", "f", nil, "equality filter field=value, repeatable")
}

func (q *queryFlags) query() records.Query {
	return records.Query{
		Page:    q.page,
		Limit:   q.limit,
		Search:  q.search,
		Sort:    q.sort,
		Filters: q.filters,
	}
}

func (c *CLI) recordsListCommand() *cobra.Command {
	var (
		q    queryFlags
		all  bool
		mine bool
	)

	cmd := &cobra.Command{
		Use:   "list COLLECTION",
		Short: "List records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.resource(cmd, args[0])
			if err != nil {
				return err
			}

			keep := func(map[string]any) bool { return true }
			if mine {
				user, err := auth.New(c.client).Require(cmd.Context())
				if err != nil {
					return err
				}
				keep = records.Equals(createdByField, user.ID)
			}

			if all {
				items, err := res.All(cmd.Context(), q.query())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), records.Filter(items, keep))
			}

			page, err := res.List(cmd.Context(), q.query())
			if err != nil {
				return err
			}
			items := records.Filter(page.Items, keep)
			if err := printJSON(cmd.OutOrStdout(), items); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "page %d, %d of %d records\n", page.Page, len(items), page.Total)
			return nil
		},
	}
	q.register(cmd, true)
	cmd.Flags().BoolVar(&all, "all", false, "fetch every page")
	cmd.Flags().BoolVar(&mine, "mine", false, "only records created by the signed in user")
	return cmd
}

func (c *CLI) recordsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get COLLECTION ID",
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.resource(cmd, args[0])
			if err != nil {
				return err
			}
			item, err := res.Get(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), item)
		},
	}
}

func (c *CLI) recordsCreateCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create COLLECTION",
		Short: "Create a record from a JSON object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			if !json.Valid(data) {
				return errors.BadRequest("input is not valid JSON")
			}

			res, err := c.resource(cmd, args[0])
			if err != nil {
				return err
			}
			item, err := res.Create(cmd.Context(), json.RawMessage(data))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), item)
		},
	}
	cmd.Flags().StringVar(&file, "file", "-", "JSON file, - for stdin")
	return cmd
}

func (c *CLI) recordsExportCommand() *cobra.Command {
	var (
		q      queryFlags
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export COLLECTION",
		Short: "Export records as CSV or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.resource(cmd, args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			n, err := res.Export(cmd.Context(), q.query(), format, w)
			if err != nil {
				return err
			}
			c.logger.Debug().Int64("bytes", n).Str("format", format).Msg("export written")
			return nil
		},
	}
	q.register(cmd, false)
	cmd.Flags().StringVar(&format, "format", "csv", "csv or json")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	return cmd
}

func (c *CLI) recordsSubmitBatchCommand() *cobra.Command {
	var (
		file    string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "submit-batch COLLECTION",
		Short: "Create many records concurrently",
		Long: "Create every record of a JSON array, or of a file with one JSON object\n" +
			"per line. Records are submitted by --workers concurrent requests.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			items, err := splitItems(data)
			if err != nil {
				return err
			}

			res, err := c.resource(cmd, args[0])
			if err != nil {
				return err
			}
			results, err := res.CreateBatch(cmd.Context(), items, workers)
			if err != nil {
				return err
			}

			for _, r := range results {
				if r.Err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "item %d: %v\n", r.Index, r.Err)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(r.Item))
			}
			failed := records.Failed(results)
			fmt.Fprintf(cmd.ErrOrStderr(), "submitted %d of %d records\n", len(results)-failed, len(results))
			if failed > 0 {
				return fmt.Errorf("%d records failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "-", "input file, - for stdin")
	cmd.Flags().IntVarP(&workers, "workers", "w", records.DefaultWorkers, "concurrent requests")
	return cmd
}

// splitItems accepts a JSON array or newline delimited objects.
func splitItems(data []byte) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, errNotJSONList.WithCause(err)
		}
		return items, nil
	}

	var items []json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		var item json.RawMessage
		err := dec.Decode(&item)
		if err == io.EOF {
			return items, nil
		}
		if err != nil {
			return nil, errNotJSONList.WithCause(err)
		}
		items = append(items, item)
	}
}
