package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/getsentry/blockprof/internal/metrics"
	"github.com/getsentry/blockprof/internal/pprofutil"
	"github.com/getsentry/blockprof/internal/profiler"
	"github.com/getsentry/blockprof/internal/speedscope"
	"github.com/getsentry/blockprof/internal/storageutil"
)

const (
	formatText       = "text"
	formatJSON       = "json"
	formatSpeedscope = "speedscope"
	formatPprof      = "pprof"
	formatTree       = "tree"
)

func encodeReport(format string, r profiler.Report) ([]byte, error) {
	var b bytes.Buffer
	var err error
	switch format {
	case formatText:
		err = r.WriteText(&b)
	case formatJSON:
		var p []byte
		p, err = gojson.MarshalIndent(r, "", "  ")
		b.Write(p)
		b.WriteByte('\n')
	case formatSpeedscope:
		err = speedscope.Encode(&b, speedscope.FromReport(r, "haversine"))
	case formatPprof:
		err = pprofutil.Write(&b, r)
	case formatTree:
		b.WriteString(reportTree(r).String())
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func extension(format string) string {
	switch format {
	case formatJSON:
		return ".json"
	case formatSpeedscope:
		return ".speedscope.json"
	case formatPprof:
		return ".pb.gz"
	}
	return ".txt"
}

// export writes the profile to the bucket at url and returns its key.
// Compressed json profiles are stored as the report itself so they can be
// loaded back as a baseline.
func export(ctx context.Context, url, key, format string, r profiler.Report, payload []byte, compress bool) (string, error) {
	bucket, err := storageutil.OpenBucket(ctx, url)
	if err != nil {
		return "", err
	}
	defer bucket.Close()
	if compress && format == formatJSON {
		key += storageutil.CompressedSuffix
		if err := storageutil.CompressedWrite(ctx, bucket, key, r); err != nil {
			return "", err
		}
		return key, nil
	}
	return storageutil.Write(ctx, bucket, key, payload, compress)
}

// loadReport reads a json profile exported by a previous run.
func loadReport(ctx context.Context, url, key string) (profiler.Report, error) {
	var r profiler.Report
	bucket, err := storageutil.OpenBucket(ctx, url)
	if err != nil {
		return r, err
	}
	defer bucket.Close()
	if strings.HasSuffix(key, storageutil.CompressedSuffix) {
		err = storageutil.UnmarshalCompressed(ctx, bucket, key, &r)
		return r, err
	}
	b, err := storageutil.Read(ctx, bucket, key)
	if err != nil {
		return r, err
	}
	err = gojson.Unmarshal(b, &r)
	return r, err
}

// writeComparison prints each slot's exclusive time next to the baseline's.
// Slots are matched by name.
func writeComparison(w io.Writer, baseline, current profiler.Report) {
	before := make(map[string]profiler.SlotReport, len(baseline.Slots))
	for _, s := range baseline.Slots {
		before[s.Name] = s
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Slot\tBaseline\tCurrent\tChange")
	for _, s := range current.Slots {
		now := time.Duration(current.Nanoseconds(s.ExclusiveTicks))
		b, ok := before[s.Name]
		if !ok {
			fmt.Fprintf(tw, "%s\t-\t%s\tnew\n", s.Name, now)
			continue
		}
		then := time.Duration(baseline.Nanoseconds(b.ExclusiveTicks))
		change := "-"
		if then > 0 {
			change = fmt.Sprintf("%+.2f%%", 100*(float64(now)-float64(then))/float64(then))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Name, then, now, change)
	}
	_ = tw.Flush()
	fmt.Fprintln(w)
}

func writeSlotMetrics(w io.Writer, m []metrics.SlotMetrics) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Slot\tRuns\tHits\tp75\tp95\tp99\tAvg\tWorst run")
	for _, s := range m {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			s.Name,
			s.Runs,
			s.Count,
			time.Duration(s.P75),
			time.Duration(s.P95),
			time.Duration(s.P99),
			time.Duration(int64(s.Avg)),
			s.Worst,
		)
	}
	_ = tw.Flush()
	fmt.Fprintln(w)
}
