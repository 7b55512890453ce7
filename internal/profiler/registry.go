package profiler

import "sync"

// Call-site ids are process wide: every profiler shares them, so a report from
// one context can be merged with another.
var registry = struct {
	sync.Mutex
	names  []string
	byName map[string]SlotID
}{
	names:  []string{""},
	byName: make(map[string]SlotID),
}

// Register assigns the next free slot id to a call site. It is meant to be
// called once per call site, typically from a package level variable:
//
//	var slotParse = profiler.Register("Parse")
func Register(name string) SlotID {
	registry.Lock()
	defer registry.Unlock()
	return register(name)
}

// SlotNamed returns the id already registered under name, registering a new
// one if there is none.
func SlotNamed(name string) SlotID {
	registry.Lock()
	defer registry.Unlock()
	if id, ok := registry.byName[name]; ok {
		return id
	}
	return register(name)
}

// NameOf returns the name id was registered with.
func NameOf(id SlotID) string {
	registry.Lock()
	defer registry.Unlock()
	if int(id) >= len(registry.names) {
		return ""
	}
	return registry.names[id]
}

func register(name string) SlotID {
	id := SlotID(len(registry.names))
	registry.names = append(registry.names, name)
	if _, ok := registry.byName[name]; !ok {
		registry.byName[name] = id
	}
	return id
}
