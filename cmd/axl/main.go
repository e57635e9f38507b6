// Package main is the tool for inspecting stored acceleration collections.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/relabs-tech/wavebuoy/internal/app"
	"github.com/relabs-tech/wavebuoy/internal/axl"
)

const (
	// Flags.
	flagDir    = "dir"
	flagStart  = "start"
	flagEnd    = "end"
	flagMaxGap = "max-gap"
)

func main() {
	cliApp := &cli.App{
		Name:  "axl",
		Usage: "inspect stored wave buoy acceleration collections",
		Commands: []*cli.Command{
			{
				Name:  "ts",
				Usage: "list continuous time series in a storage directory",
				Flags: []cli.Flag{
					&cli.PathFlag{
						Name:  flagDir,
						Value: "./data",
						Usage: "storage `DIR`",
					},
					&cli.TimestampFlag{
						Name:   flagStart,
						Layout: time.RFC3339,
						Usage:  "skip segments starting before this time",
					},
					&cli.TimestampFlag{
						Name:   flagEnd,
						Layout: time.RFC3339,
						Usage:  "skip segments ending after this time",
					},
					&cli.DurationFlag{
						Name:  flagMaxGap,
						Value: axl.DefaultMaxGap,
						Usage: "largest gap within one series",
					},
				},
				Action: timeSeriesAction,
			},
			{
				Name:      "file",
				Usage:     "list the packages in a collection file",
				ArgsUsage: "<file>",
				Action:    fileAction,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func timeSeriesAction(c *cli.Context) error {
	coll, err := app.LoadCollection(c.Path(flagDir))
	if err != nil {
		return err
	}
	var start, end time.Time
	if t := c.Timestamp(flagStart); t != nil {
		start = *t
	}
	if t := c.Timestamp(flagEnd); t != nil {
		end = *t
	}
	n := app.WriteSegments(c.App.Writer, coll, start, end, c.Duration(flagMaxGap))
	fmt.Fprintf(c.App.Writer, "%d series\n", n)
	return nil
}

func fileAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one file")
	}
	return app.WriteFile(c.App.Writer, c.Args().First())
}
