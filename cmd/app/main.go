// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/credguard/cmd/app/commands"
)

var version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "credguard",
		Usage:   "Credential context and boundary sanitization service",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations for the SQL audit backends",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrations()
				},
			},
			{
				Name:  "create-master-key",
				Usage: "Generate a new master key for envelope encryption",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "id",
						Aliases: []string{"i"},
						Value:   "",
						Usage:   "Master key ID (e.g., prod-master-key-2026)",
					},
					&cli.StringFlag{
						Name:  "kms-provider",
						Value: "",
						Usage: "KMS provider wrapping the key (gcpkms, awskms, azurekeyvault, hashivault, localsecrets)",
					},
					&cli.StringFlag{
						Name:  "kms-key-uri",
						Value: "",
						Usage: "KMS key URI (e.g., base64key://..., gcpkms://...)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCreateMasterKey(
						cmd.String("id"),
						cmd.String("kms-provider"),
						cmd.String("kms-key-uri"),
					)
				},
			},
			{
				Name:  "health-check",
				Usage: "Check that the storage backend completes an encrypted round trip",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunHealthCheck(ctx)
				},
			},
			{
				Name:  "verify-audit-events",
				Usage: "Verify the integrity of the audit trail within a time range",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "start-date",
						Aliases:  []string{"s"},
						Required: true,
						Usage:    "Start of the range (YYYY-MM-DD or YYYY-MM-DD HH:MM:SS)",
					},
					&cli.StringFlag{
						Name:     "end-date",
						Aliases:  []string{"e"},
						Required: true,
						Usage:    "End of the range (YYYY-MM-DD or YYYY-MM-DD HH:MM:SS)",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunVerifyAuditEvents(
						ctx,
						cmd.String("start-date"),
						cmd.String("end-date"),
						cmd.String("format"),
					)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
