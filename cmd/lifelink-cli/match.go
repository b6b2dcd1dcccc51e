package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/lifelink-health/platform/pkg/donor"
	"github.com/lifelink-health/platform/pkg/geo"
	"github.com/lifelink-health/platform/pkg/matching"
	"github.com/urfave/cli/v2"
)

var matchCmd = &cli.Command{
	Name:    "match",
	Usage:   "Rank the donors in a donors.json file against a single request",
	Aliases: []string{"m"},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "donors",
			Required: true,
			Usage:    "specify the input donors.json",
		},
		&cli.StringFlag{
			Name:     "city",
			Required: true,
			Usage:    "specify the recipient city",
		},
		&cli.StringFlag{
			Name:  "blood-type",
			Usage: "request blood of this type (A+, O-, ...)",
		},
		&cli.StringFlag{
			Name:  "organ",
			Usage: "request this organ instead of blood",
		},
		&cli.Float64Flag{
			Name:  "max-distance",
			Value: 0,
			Usage: "specify the search radius in km (0 uses the default for the request type)",
		},
		&cli.StringFlag{
			Name:  "catalog",
			Usage: "specify the city catalog YAML (defaults to the built-in catalog)",
		},
	},
	Action: func(ctx *cli.Context) error {
		var (
			donorsFile = ctx.String("donors")
			city       = ctx.String("city")
			bloodType  = ctx.String("blood-type")
			organ      = ctx.String("organ")
			maxDist    = ctx.Float64("max-distance")
		)
		if (bloodType == "") == (organ == "") {
			return errors.New("exactly one of --blood-type or --organ is required")
		}

		var (
			req matching.Request
			err error
		)
		if organ != "" {
			req, err = matching.NewOrganRequest("cli", organ, city, maxDist)
		} else {
			req, err = matching.NewBloodRequest("cli", bloodType, city, maxDist)
		}
		if err != nil {
			return err
		}

		catalog, err := geo.Load(ctx.String("catalog"))
		if err != nil {
			return err
		}
		records, err := readDonors(donorsFile)
		if err != nil {
			return err
		}

		engine := matching.NewEngine(catalog, 0, 0)
		candidates, err := engine.FindCompatibleDonors(req, donor.MatchDonors(records))
		if err != nil {
			return err
		}

		fmt.Printf("%d compatible donor(s) within %.0f km of %s\n", len(candidates), engine.EffectiveMaxDistance(req), req.City)
		for i, c := range candidates {
			fmt.Printf("%3d. %-24s %-14s %-4s %8.2f km\n", i+1, c.Donor.Name, c.Donor.City, c.Donor.BloodType, c.RoundedDistance())
		}
		return nil
	},
}

func readDonors(path string) ([]donor.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []donor.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}
