package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"

	"github.com/getsentry/blockprof/internal/envutil"
	"github.com/getsentry/blockprof/internal/haversine"
	"github.com/getsentry/blockprof/internal/logutil"
)

type flags struct {
	Seed    int64  `kong:"arg,help='Seed of the random generator.'"`
	Count   int    `kong:"arg,help='Number of pairs to generate.'"`
	JSON    string `kong:"arg,name='json',help='Pairs JSON file to write.'"`
	Answers string `kong:"arg,optional,help='Answers file to write.'"`

	Method string `kong:"enum='uniform,cluster',default='cluster',help='How points are distributed (${enum}).'"`
}

func main() {
	var f flags
	kong.Parse(&f,
		kong.Name("haversine-gen"),
		kong.Description("Generates random coordinate pairs and their reference haversine distances."),
	)
	logutil.ConfigureLogger(envutil.GetEnvOrFallback("LOG_LEVEL", "info"))

	avg, err := generate(f)
	if err != nil {
		log.Fatal().Err(err).Msg("generation failed")
	}

	fmt.Fprintf(os.Stdout, "Method: %s\n", f.Method)
	fmt.Fprintf(os.Stdout, "Seed: %d\n", f.Seed)
	fmt.Fprintf(os.Stdout, "Pairs: %d\n", f.Count)
	fmt.Fprintf(os.Stdout, "Avg. distance: %.16f\n", avg)
}

func generate(f flags) (float64, error) {
	method, err := haversine.ParseMethod(f.Method)
	if err != nil {
		return 0, err
	}
	g, err := haversine.NewGenerator(f.Seed, f.Count, method)
	if err != nil {
		return 0, err
	}

	jsonFile, err := os.Create(f.JSON)
	if err != nil {
		return 0, fmt.Errorf("could not open file %q: %w", f.JSON, err)
	}
	defer jsonFile.Close()
	pw, err := haversine.NewPairWriter(jsonFile)
	if err != nil {
		return 0, err
	}

	var aw *haversine.AnswerWriter
	if f.Answers != "" {
		answersFile, err := os.Create(f.Answers)
		if err != nil {
			return 0, fmt.Errorf("could not open file %q: %w", f.Answers, err)
		}
		defer answersFile.Close()
		aw = haversine.NewAnswerWriter(answersFile)
	}

	return g.Generate(pw, aw)
}
