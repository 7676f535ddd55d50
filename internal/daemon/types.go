package daemon

// StartOptions configures the daemon.
type StartOptions struct {
	Home   string
	Port   int
	Dev    bool
	APIKey string
}

// StatusInfo is the result of Status.
type StatusInfo struct {
	Running bool
	PID     int
	Addr    string
}
