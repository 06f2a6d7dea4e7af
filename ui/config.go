package ui

// Config contains terminal-presentation configuration.
type Config struct {
	// NoProgress disables the progress view even on a TTY.
	NoProgress bool `env:"REVOICE_NO_PROGRESS"`

	// PreviewWidth caps the spoken-text excerpt shown in the header.
	PreviewWidth uint `env:"REVOICE_PREVIEW_WIDTH" envDefault:"48"`

	// ShowTimings adds per-stage durations to the finished view.
	ShowTimings bool `env:"REVOICE_SHOW_TIMINGS"`
}
