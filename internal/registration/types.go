package registration

// Target names a class to register for.
type Target string

func (t Target) String() string { return string(t) }

// Availability is a snapshot of one class at poll time.
type Availability struct {
	Success    bool
	Capacity   int
	Registered int
	// HasCounts is set when the portal reported Capacity and Registered.
	HasCounts bool
	Message   string
	// Detail is the portal's own message, if it sent one.
	Detail string
}

// HasCapacity reports whether a seat was free when the snapshot was taken.
func (a Availability) HasCapacity() bool {
	return a.Capacity > a.Registered
}

// Result is the outcome of one registration call.
type Result struct {
	Success bool
	Message string
	Detail  string
}
