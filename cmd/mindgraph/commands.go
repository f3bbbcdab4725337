package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mindgraph/application/services"
	"mindgraph/domain/scoring"
	"mindgraph/infrastructure/config"
	"mindgraph/infrastructure/di"
	"mindgraph/pkg/auth"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "stats",
		Short:   "show document statistics for an owner",
		Example: "mindgraph stats -o <owner>",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireOwner(); err != nil {
				return err
			}
			return withContainer(cmd.Context(), func(c *di.Container) error {
				stats, err := c.Store.Stats(cmd.Context(), ownerFlag)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), stats)
			})
		},
	}
}

func analyzeCmd() *cobra.Command {
	var minStrength float64
	var maxConnections int
	var summary bool

	command := &cobra.Command{
		Use:     "analyze",
		Short:   "find connections between an owner's documents",
		Example: "mindgraph analyze -o <owner> --min-strength 0.4 --max 20",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireOwner(); err != nil {
				return err
			}
			if minStrength < 0 || minStrength > 1 {
				return fmt.Errorf("--min-strength must be between 0 and 1")
			}
			return withContainer(cmd.Context(), func(c *di.Container) error {
				defStrength, defMax := c.Connections.Defaults()
				if !cmd.Flags().Changed("min-strength") {
					minStrength = defStrength
				}
				if !cmd.Flags().Changed("max") {
					maxConnections = defMax
				}

				result, err := c.Connections.Analyze(cmd.Context(), ownerFlag, minStrength, maxConnections)
				if err != nil {
					return err
				}
				if summary {
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "keyword=%d temporal=%d category=%d flows=%d total=%d\n",
						len(result.Keyword), len(result.Temporal), len(result.Category), len(result.Flows), result.Total())
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	command.Flags().Float64Var(&minStrength, "min-strength", 0, "minimum connection strength, 0 to 1")
	command.Flags().IntVar(&maxConnections, "max", 0, "maximum keyword connections, 0 for no limit")
	command.Flags().BoolVarP(&summary, "summary", "s", false, "print edge counts only")

	return command
}

func exportCmd() *cobra.Command {
	var output string

	command := &cobra.Command{
		Use:     "export",
		Short:   "write an owner's documents and keyword index as json",
		Example: "mindgraph export -o <owner> --out backup.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireOwner(); err != nil {
				return err
			}
			return withContainer(cmd.Context(), func(c *di.Container) error {
				snapshot, err := c.Store.Export(cmd.Context(), ownerFlag)
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					return printJSON(cmd.OutOrStdout(), snapshot)
				}

				f, err := os.Create(output)
				if err != nil {
					return err
				}
				if err := printJSON(f, snapshot); err != nil {
					f.Close()
					return err
				}
				return f.Close()
			})
		},
	}

	command.Flags().StringVar(&output, "out", "", "output file, stdout when empty")

	return command
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "import [file]",
		Short:   "replace an owner's data with a previously exported snapshot",
		Long:    "import reads a snapshot from the given file, or stdin when the file is omitted or '-'",
		Example: "mindgraph import -o <owner> backup.json",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireOwner(); err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			var snapshot services.Snapshot
			if err := json.NewDecoder(in).Decode(&snapshot); err != nil {
				return fmt.Errorf("invalid snapshot: %w", err)
			}

			return withContainer(cmd.Context(), func(c *di.Container) error {
				n, err := c.Store.Import(cmd.Context(), ownerFlag, &snapshot)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d documents\n", n)
				return err
			})
		},
	}
}

func clearCmd() *cobra.Command {
	var yes bool

	command := &cobra.Command{
		Use:     "clear",
		Short:   "delete every document an owner has",
		Example: "mindgraph clear -o <owner> --yes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireOwner(); err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to clear %s without --yes", ownerFlag)
			}
			return withContainer(cmd.Context(), func(c *di.Container) error {
				n, err := c.Store.Clear(cmd.Context(), ownerFlag)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d documents\n", n)
				return err
			})
		},
	}

	command.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the deletion")

	return command
}

// scoreCmd needs no storage
func scoreCmd() *cobra.Command {
	var step int

	command := &cobra.Command{
		Use:     "score <content>",
		Short:   "rate the content of one story step",
		Example: `mindgraph score --step 2 "first I measured the baseline, then compared"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if step < 0 || step > 6 {
				return fmt.Errorf("--step must be between 0 and 6")
			}
			content := strings.Join(args, " ")
			return printJSON(cmd.OutOrStdout(), struct {
				scoring.Result
				Breakdown scoring.Breakdown `json:"breakdown"`
			}{
				Result:    scoring.ScoreStep(content, step),
				Breakdown: scoring.Analyze(content),
			})
		},
	}

	command.Flags().IntVar(&step, "step", 0, "0-based story step")

	return command
}

// tokenCmd signs a development token with JWT_SECRET
func tokenCmd() *cobra.Command {
	var ttl time.Duration
	var roles []string

	command := &cobra.Command{
		Use:     "token",
		Short:   "issue a bearer token for an owner",
		Example: "mindgraph token -o alice@example.com --ttl 1h",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireOwner(); err != nil {
				return err
			}
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}

			generator, err := auth.NewJWTGenerator(cfg.JWTSecret, cfg.JWTIssuer, nil, ttl)
			if err != nil {
				return err
			}
			token, err := generator.GenerateToken(ownerFlag, ownerFlag, roles)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	command.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	command.Flags().StringSliceVar(&roles, "role", nil, "roles to grant, repeatable")

	return command
}
