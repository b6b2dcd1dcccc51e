package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lifelink-health/platform/pkg/common/config"
	"github.com/lifelink-health/platform/pkg/common/database"
	"github.com/lifelink-health/platform/pkg/common/logger"
	"github.com/lifelink-health/platform/pkg/donation"
	"github.com/lifelink-health/platform/pkg/donor"
	"github.com/lifelink-health/platform/pkg/gateway/httpclient"
	"github.com/lifelink-health/platform/pkg/geo"
	"github.com/lifelink-health/platform/pkg/matching"
	"github.com/lifelink-health/platform/pkg/notification"
	"github.com/lifelink-health/platform/pkg/request"
	"github.com/lifelink-health/platform/pkg/sampledata"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCmd = &cli.Command{
	Name:    "seed",
	Usage:   "Generate sample donors and requests",
	Aliases: []string{"s"},
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "donors",
			Value: 50,
			Usage: "specify the number of donors to generate",
		},
		&cli.IntFlag{
			Name:  "requests",
			Value: 0,
			Usage: "specify the number of requests to submit after seeding donors",
		},
		&cli.Int64Flag{
			Name:  "seed",
			Value: time.Now().UnixNano(),
			Usage: "specify the random seed",
		},
		&cli.StringFlag{
			Name:  "catalog",
			Usage: "specify the city catalog YAML (defaults to the built-in catalog)",
		},
		&cli.StringFlag{
			Name:  "out",
			Usage: "specify the output donors.json",
		},
		&cli.BoolFlag{
			Name:  "postgres",
			Usage: "write to the postgres database configured through the environment",
		},
		&cli.StringFlag{
			Name:  "api",
			Usage: "post to a running match service at this base URL instead of a local store",
		},
	},
	Action: func(ctx *cli.Context) error {
		var (
			donors   = ctx.Int("donors")
			requests = ctx.Int("requests")
			seed     = ctx.Int64("seed")
			out      = ctx.String("out")
			usePG    = ctx.Bool("postgres")
			api      = ctx.String("api")
		)
		if donors < 0 || requests < 0 {
			return errors.New("invalid count")
		}
		if out == "" && !usePG && api == "" {
			return errors.New("one of --out, --postgres or --api is required")
		}
		if api != "" && (out != "" || usePG) {
			return errors.New("--api cannot be combined with --out or --postgres")
		}
		catalog, err := geo.Load(ctx.String("catalog"))
		if err != nil {
			return err
		}
		gen := sampledata.NewGenerator(seed, catalog.Names(), time.Now())
		if api != "" {
			client := httpclient.New(api, 10*time.Second)
			return seedInto(ctx.Context, client, gen, donors, requests)
		}
		return doSeed(ctx.Context, catalog, gen, donors, requests, out, usePG)
	},
}

// seedTarget is satisfied by both the local service and the API client.
type seedTarget interface {
	RegisterDonor(ctx context.Context, in donation.RegisterDonorInput) (*donor.Record, error)
	SubmitRequest(ctx context.Context, in donation.SubmitRequestInput) (*donation.SubmitResult, error)
}

func seedInto(ctx context.Context, target seedTarget, gen *sampledata.Generator, donors, requests int) error {
	for _, in := range gen.Donors(donors) {
		if _, err := target.RegisterDonor(ctx, in); err != nil {
			return fmt.Errorf("register donor %s: %w", in.Name, err)
		}
	}

	notified := 0
	for i := 0; i < requests; i++ {
		res, err := target.SubmitRequest(ctx, gen.Request())
		if err != nil {
			return fmt.Errorf("submit request: %w", err)
		}
		notified += res.Notified
	}

	logger.Log.WithFields(logrus.Fields{
		"donors":        donors,
		"requests":      requests,
		"notifications": notified,
	}).Info("seeding complete")
	return nil
}

func doSeed(ctx context.Context, catalog geo.Catalog, gen *sampledata.Generator, donors, requests int, out string, usePG bool) error {
	stores := donation.Stores{
		Donors:        donor.NewMemoryStore(),
		Requests:      request.NewMemoryStore(),
		Notifications: notification.NewMemoryStore(),
	}
	if usePG {
		cfg := config.Load()
		db, err := database.GetPostgres(cfg)
		if err != nil {
			return err
		}
		defer database.ClosePostgres()

		donorRepo := donor.NewRepository(db)
		requestRepo := request.NewRepository(db)
		notificationRepo := notification.NewRepository(db)
		for _, migrate := range []func() error{donorRepo.AutoMigrate, requestRepo.AutoMigrate, notificationRepo.AutoMigrate} {
			if err := migrate(); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		stores = donation.Stores{Donors: donorRepo, Requests: requestRepo, Notifications: notificationRepo}
	}

	engine := matching.NewEngine(catalog, 0, 0)
	svc := donation.NewService(stores, engine, notification.NewNotifier())
	if err := seedInto(ctx, svc, gen, donors, requests); err != nil {
		return err
	}

	if out == "" {
		return nil
	}
	records, err := svc.ListDonors(ctx)
	if err != nil {
		return err
	}
	return writeJSONFile(out, records)
}

func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
