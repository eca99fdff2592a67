package tagteam

// VisionError reports a failure of the image-to-text stage. Errors from the
// two stages are distinct types so that a caller can always tell which half
// of the pipeline broke.
type VisionError struct {
	Err error
}

func (e *VisionError) Error() string { return "vision model service failed: " + e.Err.Error() }
func (e *VisionError) Unwrap() error { return e.Err }

// LogicError reports a failure of the chat completion stage.
type LogicError struct {
	Err error
}

func (e *LogicError) Error() string { return "logic model service failed: " + e.Err.Error() }
func (e *LogicError) Unwrap() error { return e.Err }
