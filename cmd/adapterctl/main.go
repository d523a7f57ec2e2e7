// Command adapterctl is an operator CLI for the MongoDB tech adapter:
// it validates descriptors locally and inspects provisioned databases.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/domain"
	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/mongodb"
	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/service"
)

func main() {
	os.Exit(execute())
}

func execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "adapterctl",
		Short:         "MongoDB tech adapter operator CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newCollectionsCmd())
	return rootCmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <descriptor.yaml>",
		Short: "Validate a component descriptor without provisioning anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			validation := service.NewValidationService(logger)
			req, err := validation.UnpackProvisioningRequest(service.DescriptorKindComponent, string(raw), false)
			if err != nil {
				var ve *domain.ValidationError
				if errors.As(err, &ve) {
					fmt.Fprintln(cmd.OutOrStdout(), "INVALID")
					for _, msg := range ve.Errors {
						fmt.Fprintln(cmd.OutOrStdout(), "  -", msg)
					}
					return nil
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "VALID")
			fmt.Fprintln(cmd.OutOrStdout(), "  component:", req.Component.ID)
			fmt.Fprintln(cmd.OutOrStdout(), "  database: ", req.Component.Specific.Database)
			if !req.IsParentComponent {
				fmt.Fprintln(cmd.OutOrStdout(), "  target:   ", req.SubcomponentID)
			}
			return nil
		},
	}
}

func newCollectionsCmd() *cobra.Command {
	var (
		uri      string
		database string
	)
	cmd := &cobra.Command{
		Use:   "collections",
		Short: "List collections and validators of a provisioned database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if uri == "" {
				uri = os.Getenv("MONGODB_URI")
			}
			if uri == "" {
				return fmt.Errorf("no MongoDB URI: pass --uri or set MONGODB_URI")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			client, err := mongodb.Connect(ctx, uri)
			if err != nil {
				return err
			}
			defer func() { _ = client.Disconnect(context.Background()) }()

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			gateway := mongodb.NewGateway(client, "admin", logger)
			infos, err := gateway.ListCollections(ctx, database, nil)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(infos)
		},
	}
	cmd.Flags().StringVar(&uri, "uri", "", "MongoDB connection URI (defaults to MONGODB_URI)")
	cmd.Flags().StringVar(&database, "database", "", "database to inspect")
	_ = cmd.MarkFlagRequired("database")
	return cmd
}
