package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"

	"github.com/getsentry/blockprof/internal/envutil"
	"github.com/getsentry/blockprof/internal/logutil"
	"github.com/getsentry/blockprof/internal/timer"
)

type flags struct {
	Calibration time.Duration `kong:"default='1s',help='How long the CPU timer is measured against the OS timer.'"`
}

func main() {
	var f flags
	kong.Parse(&f,
		kong.Name("timerinfo"),
		kong.Description("Prints the frequency of the OS timer and an estimate of the CPU timer's."),
	)
	logutil.ConfigureLogger(envutil.GetEnvOrFallback("LOG_LEVEL", "info"))

	if f.Calibration <= 0 {
		log.Fatal().Dur("calibration", f.Calibration).Msg("calibration window must be positive")
	}
	printTimerInfo(os.Stdout, timer.OS{}, timer.NewCPU(f.Calibration))
}

func printTimerInfo(w io.Writer, osTimer timer.Source, cpu *timer.CPU) {
	fmt.Fprintf(w, "OS timer frequency: %d\n", osTimer.EstimateFrequency())
	fmt.Fprintf(w, "CPU timer (%s) frequency: %d\n", cpu.Name(), cpu.EstimateFrequency())
}
