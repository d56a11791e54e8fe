package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/pesio-ai/be-md-governance/internal/repository"
	"github.com/pesio-ai/be-md-governance/internal/service"
)

func newApp(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:                  "mdgctl",
		Usage:                 "Master data governance toolkit",
		EnableShellCompletion: true,
		Writer:                w,
		Commands: []*cli.Command{
			newAddressCommand(),
			newChainCommand(),
			newDuplicatesCommand(),
			newQualityCommand(),
		},
	}
}

func newAddressCommand() *cli.Command {
	normalizer := service.NewAddressNormalizer(nil)
	return &cli.Command{
		Name:  "address",
		Usage: "Validate or geocode a comma-delimited address",
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Parse an address and score its completeness",
				ArgsUsage: "<address>",
				Action: func(_ context.Context, cmd *cli.Command) error {
					addr, err := addressArg(cmd)
					if err != nil {
						return err
					}
					return printJSON(cmd, normalizer.ValidateAddress(addr))
				},
			},
			{
				Name:      "geocode",
				Usage:     "Resolve an address to city coordinates",
				ArgsUsage: "<address>",
				Action: func(_ context.Context, cmd *cli.Command) error {
					addr, err := addressArg(cmd)
					if err != nil {
						return err
					}
					return printJSON(cmd, normalizer.GeocodeAddress(addr))
				},
			},
		},
	}
}

func newChainCommand() *cli.Command {
	return &cli.Command{
		Name:  "chain",
		Usage: "Show the approval chain for a change type",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "type",
				Aliases:  []string{"t"},
				Usage:    "Change type, e.g. LOCATION_CREATE",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "priority",
				Aliases: []string{"p"},
				Usage:   "Priority (LOW, MEDIUM, HIGH, CRITICAL)",
				Value:   string(repository.PriorityMedium),
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			priority := repository.Priority(strings.ToUpper(cmd.String("priority")))
			if !slices.Contains(repository.AllPriorities, priority) {
				return fmt.Errorf("unknown priority %q", cmd.String("priority"))
			}
			changeType := repository.ChangeType(strings.ToUpper(cmd.String("type")))
			return printJSON(cmd, service.BuildChain(changeType, priority))
		},
	}
}

func newDuplicatesCommand() *cli.Command {
	return &cli.Command{
		Name:  "duplicates",
		Usage: "Find likely duplicates of a location among existing records",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Candidate location name", Required: true},
			&cli.StringFlag{Name: "city", Usage: "Candidate city"},
			&cli.StringFlag{Name: "address", Usage: "Candidate address"},
			&cli.StringFlag{
				Name:     "existing",
				Aliases:  []string{"f"},
				Usage:    "JSON file holding an array of existing locations",
				Required: true,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			var existing []service.LocationCandidate
			if err := readJSON(cmd.String("existing"), &existing); err != nil {
				return err
			}
			candidate := service.LocationCandidate{
				Name:    cmd.String("name"),
				City:    cmd.String("city"),
				Address: cmd.String("address"),
			}
			return printJSON(cmd, service.FindDuplicates(candidate, existing))
		},
	}
}

func newQualityCommand() *cli.Command {
	return &cli.Command{
		Name:      "quality",
		Usage:     "Score the data quality of a master-data record",
		ArgsUsage: "<record.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "as-of",
				Usage: "Score as of this time (RFC 3339); defaults to now",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one record file")
			}
			var rec service.MasterDataRecord
			if err := readJSON(cmd.Args().First(), &rec); err != nil {
				return err
			}
			asOf := time.Now()
			if v := cmd.String("as-of"); v != "" {
				t, err := time.Parse(time.RFC3339, v)
				if err != nil {
					return fmt.Errorf("invalid --as-of: %w", err)
				}
				asOf = t
			}
			return printJSON(cmd, service.CalculateDataQuality(rec, asOf))
		},
	}
}

func addressArg(cmd *cli.Command) (string, error) {
	addr := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if addr == "" {
		return "", fmt.Errorf("address is required")
	}
	return addr, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func printJSON(cmd *cli.Command, v any) error {
	enc := json.NewEncoder(cmd.Root().Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
