package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/CatalogImport/internal/admin"
	"github.com/JonMunkholm/CatalogImport/internal/core"
	"github.com/JonMunkholm/CatalogImport/internal/source"
)

type runOptions struct {
	locations  source.Locations
	importedBy string
	dryRun     bool
	asJSON     bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile the exports with the catalog and upsert the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			req, err := app.Opener.Request(ctx, opts.locations, app.Config.Import.MaxFileSize)
			if err != nil {
				return err
			}
			req.ImportedBy = opts.importedBy

			run := app.Service.Import
			if opts.dryRun {
				run = app.Service.Plan
			}

			res, err := run(ctx, req)
			if res != nil {
				if perr := printResult(cmd.OutOrStdout(), res, opts.asJSON); perr != nil {
					return errors.Join(err, perr)
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&opts.locations.Products, "products", "", "Products export: path, file:// or s3:// location (required)")
	cmd.Flags().StringVar(&opts.locations.ProductMedia, "media", "", "ProductMedia export location")
	cmd.Flags().StringVar(&opts.locations.ManagedContent, "content", "", "ManagedContent export location")
	cmd.Flags().StringVar(&opts.importedBy, "imported-by", "", "Name recorded on every upserted record")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Reconcile and report without writing")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the result as JSON")

	_ = cmd.MarkFlagRequired("products")

	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the catalog tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening the application applies the schema.
			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func newResetCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every catalog product and import run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("reset deletes all catalog data; pass --yes to confirm")
			}

			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			if err := admin.ResetCatalog(cmd.Context(), app.Store); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "catalog reset")
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "yes", false, "Confirm deleting all catalog data")

	return cmd
}

// printResult writes the import result as JSON or as an aligned summary.
func printResult(w io.Writer, res *core.ImportResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	mode := "import"
	if res.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(tw, "Import\t%s (%s)\n", res.ID, mode)
	fmt.Fprintf(tw, "Duration\t%s\n", res.Duration.Round(time.Millisecond))
	fmt.Fprintf(tw, "Products parsed\t%d\n", res.Summary.ParsedProducts)
	fmt.Fprintf(tw, "Products dropped\t%d\n", res.Summary.DroppedProducts)
	fmt.Fprintf(tw, "Records\t%d\n", res.Summary.Imported)
	fmt.Fprintf(tw, "With image\t%d\n", res.Summary.WithImage)
	fmt.Fprintf(tw, "Without image\t%d\n", res.Summary.WithoutImage)
	fmt.Fprintf(tw, "Image mappings\t%d\n", res.Summary.ImageMappings)

	if res.DryRun && len(res.Records) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "SKU\tCATEGORY\tPRODUCT CODE\tIMAGE")
		for _, r := range res.Records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.SKU, r.Category, r.ProductCode, r.ImageURL)
		}
	}
	return tw.Flush()
}
