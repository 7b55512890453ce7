package profiler

import "io"

// Default is the process wide profiler used by the package level functions.
var Default = New(Options{})

func BeginProfile() error {
	return Default.BeginProfile()
}

func EndProfile() error {
	return Default.EndProfile()
}

func TimeBlock(id SlotID) Block {
	return Default.TimeBlock(id)
}

func Dump(w io.Writer) error {
	return Default.Dump(w)
}
