package timer

const counterName = "rdtsc"

// rdtsc is implemented in tsc_amd64.s.
func rdtsc() uint64

func readCounter() uint64 {
	return rdtsc()
}
