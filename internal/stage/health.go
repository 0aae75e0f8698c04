package stage

// Health reports whether one pipeline stage can run right now. Detail
// explains a not-ready state, such as a missing external binary.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy marks the named stage ready to run.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy marks the named stage unavailable and records why.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
