package pipeline

// Stage names a pipeline phase for progress reporting.
type Stage string

const (
	StageDevice    Stage = "device"
	StageSpeech    Stage = "speech-model"
	StageSpeaker   Stage = "speaker"
	StageConverter Stage = "converter"
	StageExtract   Stage = "extract"
	StageSynth     Stage = "synthesize"
	StageConvert   Stage = "convert"
	StageDone      Stage = "done"
)

// Title returns the human-readable name of the stage.
func (s Stage) Title() string {
	switch s {
	case StageDevice:
		return "Selecting device"
	case StageSpeech:
		return "Loading speech model"
	case StageSpeaker:
		return "Resolving speaker"
	case StageConverter:
		return "Loading tone converter"
	case StageExtract:
		return "Extracting reference tone color"
	case StageSynth:
		return "Synthesizing speech"
	case StageConvert:
		return "Applying tone color"
	case StageDone:
		return "Done"
	}
	return string(s)
}

// Event reports a stage transition during a run.
type Event struct {
	Stage Stage
	// Detail carries stage-specific context: the chosen device, the
	// speaker key, the output path.
	Detail string
}
