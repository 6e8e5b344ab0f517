// lapdiff compares two laps recorded as telemetry CSV files.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/hako/durafmt"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"justapengu.in/lapcompare/pkg/comparison"
	"justapengu.in/lapcompare/pkg/geometry"
	"justapengu.in/lapcompare/pkg/telemetry"
	"justapengu.in/lapcompare/pkg/trackmap"
)

type options struct {
	lapA, lapB string
	angle      float64
	segments   int
	pngPath    string
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}

	flags := flag.NewFlagSet("lapdiff", flag.ContinueOnError)
	flags.StringVar(&opts.lapA, "a", "", "telemetry csv of lap A")
	flags.StringVar(&opts.lapB, "b", "", "telemetry csv of lap B")
	flags.Float64Var(&opts.angle, "angle", 0, "circuit rotation in degrees")
	flags.IntVar(&opts.segments, "segments", 20, "number of segments to compare")
	flags.StringVar(&opts.pngPath, "png", "", "write a comparison map to this path")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if opts.lapA == "" || opts.lapB == "" {
		return nil, errors.New("both -a and -b must be given")
	}

	return opts, nil
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	opts, err := parseFlags(os.Args[1:])

	if err == flag.ErrHelp {
		return
	} else if err != nil {
		logger.WithError(err).Fatal("Invalid arguments")
	}

	if err := run(opts, os.Stdout); err != nil {
		logger.WithError(err).Fatal("Could not compare laps")
	}
}

// readLap loads a lap from a csv file. The file name, less its extension, is used as the driver.
func readLap(path string) (telemetry.Lap, error) {
	f, err := os.Open(path)

	if err != nil {
		return telemetry.Lap{}, errors.Wrapf(err, "open %s", path)
	}

	defer f.Close()

	samples, err := telemetry.ReadSamples(f)

	if err != nil {
		return telemetry.Lap{}, errors.Wrapf(err, "read %s", path)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	return telemetry.Lap{
		Info:    telemetry.LapInfo{DriverNumber: name},
		Samples: samples,
	}, nil
}

func run(opts *options, w io.Writer) error {
	lapA, err := readLap(opts.lapA)

	if err != nil {
		return err
	}

	lapB, err := readLap(opts.lapB)

	if err != nil {
		return err
	}

	result, err := comparison.Compare(lapA, lapB, geometry.Radians(opts.angle), opts.segments)

	if err != nil {
		return err
	}

	writeTable(w, result)

	if opts.pngPath != "" {
		f, err := os.Create(opts.pngPath)

		if err != nil {
			return errors.Wrapf(err, "create %s", opts.pngPath)
		}

		defer f.Close()

		if _, err := trackmap.NewRenderer("", "").Render(f, result); err != nil {
			return errors.Wrap(err, "render comparison")
		}
	}

	return nil
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

func writeTable(w io.Writer, result *comparison.Result) {
	driverA, driverB := result.LapA.Lap.Info.DriverNumber, result.LapB.Lap.Info.DriverNumber

	winA := color.New(color.FgRed, color.Bold).SprintFunc()
	winB := color.New(color.FgCyan, color.Bold).SprintFunc()

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Segment", driverA, driverB, "Delta", "Winner"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, segment := range result.Segments {
		winner := winB(driverB)

		if segment.Winner == comparison.SideA {
			winner = winA(driverA)
		}

		table.Append([]string{
			fmt.Sprintf("%d", segment.Ordinal+1),
			formatSeconds(segment.ElapsedA),
			formatSeconds(segment.ElapsedB),
			fmt.Sprintf("%+.3f", segment.Delta().Seconds()),
			winner,
		})
	}

	table.SetFooter([]string{
		"",
		durafmt.Parse(result.LapA.Lap.Elapsed()).String(),
		durafmt.Parse(result.LapB.Lap.Elapsed()).String(),
		"",
		fmt.Sprintf("%d-%d", result.Wins(comparison.SideA), result.Wins(comparison.SideB)),
	})

	table.Render()

	if result.UnderSegmented() {
		fmt.Fprintf(w, "only %d of %d segments could be compared\n", len(result.Segments), result.Requested)
	}
}
