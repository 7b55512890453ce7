package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"

	"github.com/getsentry/blockprof/internal/envutil"
	"github.com/getsentry/blockprof/internal/haversine"
	"github.com/getsentry/blockprof/internal/logutil"
	"github.com/getsentry/blockprof/internal/metrics"
	"github.com/getsentry/blockprof/internal/profiler"
	"github.com/getsentry/blockprof/internal/timer"
)

// Slots are reported in registration order. Parse and Sum are timed inside
// the haversine package and named here to keep the pipeline order.
var (
	slotStartup    = profiler.SlotNamed("Startup")
	slotRead       = profiler.SlotNamed("Read")
	_              = profiler.SlotNamed("Parse")
	_              = profiler.SlotNamed("Sum")
	slotMiscOutput = profiler.SlotNamed("MiscOutput")
)

var release string

type flags struct {
	Pairs   string `kong:"arg,type='existingfile',help='Pairs JSON file.'"`
	Answers string `kong:"arg,optional,type='existingfile',help='Answers file written by the generator.'"`

	Format          string `kong:"enum='text,json,speedscope,pprof,tree',default='text',help='Profile output format (${enum}).'"`
	ExportURL       string `kong:"name='export-url',help='Bucket URL the profile is also written to, e.g. file:///tmp/profiles.'"`
	ExportKey       string `kong:"name='export-key',help='Object key of the exported profile, defaults to the session ID.'"`
	Compress        bool   `kong:"help='Compress the exported profile with lz4.'"`
	Baseline        string `kong:"help='Key of a json profile in the export bucket to compare the run against.'"`
	Repeat          int    `kong:"default='1',help='Number of profiled runs, reported merged.'"`
	MetricsTextfile string `kong:"name='metrics-textfile',help='Write the profile as Prometheus metrics to this file.'"`
	Quiet           bool   `kong:"help='Only log warnings and errors.'"`
}

type environment struct {
	config ServiceConfig
	flags  flags
	clock  timer.Source

	stdout io.Writer
	// summary receives the pairs and averages; it is stderr when stdout
	// carries a machine readable profile.
	summary io.Writer
}

func newEnvironment(f flags) (*environment, error) {
	var e environment
	if err := envutil.ReadConfig(&e.config); err != nil {
		return nil, err
	}
	if f.Repeat < 1 {
		return nil, fmt.Errorf("--repeat must be at least 1, got %d", f.Repeat)
	}
	clock, err := timer.New(e.config.Timer, e.config.Calibration)
	if err != nil {
		return nil, err
	}
	e.clock = clock
	e.flags = f
	e.stdout = os.Stdout
	e.summary = os.Stdout
	if f.Format != formatText && f.Format != formatTree {
		e.summary = os.Stderr
	}
	return &e, nil
}

func main() {
	var f flags
	description, _ := envutil.Describe(&ServiceConfig{}, "Environment variables:")
	kong.Parse(&f,
		kong.Name("haversine"),
		kong.Description("Computes the average haversine distance of a pairs file and profiles it.\n\n"+description),
	)

	logutil.ConfigureLogger(envutil.GetEnvOrFallback("LOG_LEVEL", "info"))
	if f.Quiet {
		logutil.Quiet()
	}

	env, err := newEnvironment(f)
	if err != nil {
		log.Fatal().Err(err).Msg("error setting up environment")
	}

	err = sentry.Init(sentry.ClientOptions{
		Dsn:         env.config.SentryDSN,
		Environment: env.config.Environment,
		Release:     release,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("can't initialize sentry")
	}

	if err := env.run(context.Background()); err != nil {
		sentry.CaptureException(err)
		sentry.Flush(5 * time.Second)
		log.Fatal().Err(err).Msg("processing failed")
	}
	sentry.Flush(5 * time.Second)
}

func (e *environment) newProfiler() *profiler.Profiler {
	return profiler.New(profiler.Options{
		Clock:    e.clock,
		Capacity: e.config.SlotCapacity,
		MaxDepth: e.config.MaxDepth,
		Logger:   &log.Logger,
	})
}

func (e *environment) run(ctx context.Context) error {
	var baseline *profiler.Report
	if e.flags.Baseline != "" {
		if e.flags.ExportURL == "" {
			return errors.New("--baseline needs --export-url")
		}
		b, err := loadReport(ctx, e.flags.ExportURL, e.flags.Baseline)
		if err != nil {
			return fmt.Errorf("loading baseline %q: %w", e.flags.Baseline, err)
		}
		baseline = &b
	}

	reports := make([]profiler.Report, 0, e.flags.Repeat)
	aggregator := metrics.NewAggregator(uint(e.config.SlotCapacity), 5)
	var last *profiler.Profiler

	for i := 0; i < e.flags.Repeat; i++ {
		p := e.newProfiler()
		out := e.summary
		if i > 0 {
			out = io.Discard
		}
		if err := e.process(profiler.NewContext(ctx, p), p, out); err != nil {
			return err
		}
		r, err := p.Report()
		if err != nil {
			return err
		}
		aggregator.AddReport(r, r.SessionID)
		reports = append(reports, r)
		last = p
	}

	report := reports[0]
	if len(reports) > 1 {
		merged, err := profiler.MergeReports(reports...)
		if err != nil {
			return err
		}
		report = merged
		writeSlotMetrics(e.summary, aggregator.ToMetrics())
	}

	if baseline != nil {
		writeComparison(e.summary, *baseline, report)
	}

	var payload []byte
	var err error
	if e.flags.Format == formatText && len(reports) == 1 {
		err = last.Dump(e.stdout)
		if err == nil && e.flags.ExportURL != "" {
			payload, err = encodeReport(formatText, report)
		}
	} else {
		payload, err = encodeReport(e.flags.Format, report)
		if err == nil {
			_, err = e.stdout.Write(payload)
		}
	}
	if err != nil {
		return err
	}

	if e.flags.ExportURL != "" {
		key := e.flags.ExportKey
		if key == "" {
			key = report.SessionID + extension(e.flags.Format)
		}
		key, err = export(ctx, e.flags.ExportURL, key, e.flags.Format, report, payload, e.flags.Compress)
		if err != nil {
			return err
		}
		log.Info().Str("url", e.flags.ExportURL).Str("key", key).Msg("profile exported")
	}
	if e.flags.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(e.flags.MetricsTextfile, report); err != nil {
			return err
		}
	}
	return nil
}

// process runs the whole pipeline once under p.
func (e *environment) process(ctx context.Context, p *profiler.Profiler, out io.Writer) error {
	if err := p.BeginProfile(); err != nil {
		return err
	}
	defer func() {
		_ = p.EndProfile()
	}()

	startup := p.TimeBlock(slotStartup)
	pairsFile, err := os.Open(e.flags.Pairs)
	if err != nil {
		startup.End()
		return err
	}
	defer pairsFile.Close()
	var answersFile *os.File
	if e.flags.Answers != "" {
		answersFile, err = os.Open(e.flags.Answers)
		if err != nil {
			startup.End()
			return err
		}
		defer answersFile.Close()
	}
	startup.End()

	var data []byte
	var answers *haversine.Answers
	err = func() error {
		defer p.TimeBlock(slotRead).End()
		data, err = io.ReadAll(pairsFile)
		if err != nil {
			return err
		}
		if answersFile != nil {
			a, err := haversine.ReadAnswers(answersFile)
			if err != nil {
				return err
			}
			answers = &a
		}
		return nil
	}()
	if err != nil {
		return err
	}

	pairs, err := haversine.ParsePairs(ctx, data)
	if err != nil {
		return err
	}
	result := haversine.Sum(ctx, pairs)

	defer p.TimeBlock(slotMiscOutput).End()
	fmt.Fprintf(out, "Input size: %s\n", humanize.Bytes(uint64(len(data))))
	fmt.Fprintf(out, "Pairs: %d\n", result.Count)
	fmt.Fprintf(out, "Avg. distance: %.16f\n", result.Average)
	if answers != nil {
		fmt.Fprintf(out, "\nAnswer pairs: %d\n", len(answers.Distances))
		fmt.Fprintf(out, "Answer avg. distance: %.16f\n", answers.Average)
		fmt.Fprintf(out, "Difference: %.16f\n", result.Difference(*answers))
		if len(answers.Distances) != result.Count {
			log.Warn().
				Int("pairs", result.Count).
				Int("answers", len(answers.Distances)).
				Msg("pairs and answers don't match")
		}
	}
	fmt.Fprintln(out)
	return nil
}
