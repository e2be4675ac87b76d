// Command neonhttp runs SQL statements against a PostgreSQL database
// through the Neon SQL-over-HTTP proxy.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/neondatabase-labs/neonhttp/adapters"
	"github.com/neondatabase-labs/neonhttp/core"
	"github.com/neondatabase-labs/neonhttp/core/format"
)

func main() {
	// pick up NEON_CONNECTION_STRING and friends from a local .env
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type options struct {
	url       string
	proxyHost string
	timeout   time.Duration
}

func (o *options) connect() (*core.Connection, error) {
	if o.url == "" {
		o.url = os.Getenv("NEON_CONNECTION_STRING")
	}
	if o.url == "" {
		return nil, errors.New("no connection string provided (--url or NEON_CONNECTION_STRING)")
	}

	return adapters.NewConnection(&core.ConnectionParams{
		Name:      "neonhttp-cli",
		Type:      "neon",
		URL:       o.url,
		ProxyHost: o.proxyHost,
	})
}

func rootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "neonhttp",
		Short:         "Run SQL against PostgreSQL through the Neon SQL-over-HTTP proxy",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.url, "url", "", "database connection string (defaults to $NEON_CONNECTION_STRING)")
	root.PersistentFlags().StringVar(&opts.proxyHost, "proxy", "", "proxy endpoint override, e.g. http://localhost:4444")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "maximum time to wait for a result")

	root.AddCommand(queryCmd(opts))
	root.AddCommand(structureCmd(opts))
	root.AddCommand(databasesCmd(opts))

	return root
}

func queryCmd(opts *options) *cobra.Command {
	var (
		params       []string
		formatterArg string
	)

	cmd := &cobra.Command{
		Use:   "query <statement>",
		Short: "Execute a single SQL statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := pickFormatter(formatterArg)
			if err != nil {
				return err
			}

			conn, err := opts.connect()
			if err != nil {
				return err
			}
			defer conn.Close()

			values := make([]any, len(params))
			for i, p := range params {
				values[i] = p
			}

			call := conn.ExecuteParams(args[0], values, nil)

			select {
			case <-call.Done():
			case <-time.After(opts.timeout):
				call.Cancel()
				return fmt.Errorf("no result within %v", opts.timeout)
			}

			if err := call.Err(); err != nil {
				return err
			}

			result, err := call.GetResult()
			if err != nil {
				return err
			}

			out, err := result.Format(formatter, 0, result.Len())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&params, "param", nil, "positional parameter value, repeatable ($1, $2, ...)")
	cmd.Flags().StringVar(&formatterArg, "format", "table", "output format: table, json or csv")

	return cmd
}

func structureCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "structure",
		Short: "Print the database structure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := opts.connect()
			if err != nil {
				return err
			}
			defer conn.Close()

			structure, err := conn.GetStructure()
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(structure, "", "  ")
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func databasesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "databases",
		Short: "List available databases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := opts.connect()
			if err != nil {
				return err
			}
			defer conn.Close()

			current, available, err := conn.ListDatabases()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "current: %s\n", current)
			for _, db := range available {
				fmt.Fprintln(cmd.OutOrStdout(), db)
			}
			return nil
		},
	}
}

func pickFormatter(name string) (core.Formatter, error) {
	switch name {
	case "table":
		return format.NewTable(), nil
	case "json":
		return format.NewJSON(), nil
	case "csv":
		return format.NewCSV(), nil
	default:
		return nil, fmt.Errorf("unknown format: %q", name)
	}
}
