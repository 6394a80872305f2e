package app

// Config holds the runtime flags of one operator invocation, as opposed to
// the file-backed operator configuration it selects.
type Config struct {
	// Debug enables debug-level logging.
	Debug bool

	// Silent suppresses all log output.
	Silent bool

	// ConfigPath is the operator configuration file; empty selects the
	// default path.
	ConfigPath string

	// SpecPath overrides the spec file named in the configuration.
	SpecPath string
}

// DefaultConfigPath is used when no configuration file flag is given.
const DefaultConfigPath = "roomop.yaml"
