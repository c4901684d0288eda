package meteor

// Parser turns one dataset folder into zero or more observations. The
// concrete detection-file format (and its calibration data) is owned by the
// implementation; the pipeline only sees finished Observation values.
//
// Implementations return ErrNoDetections when the folder holds no usable
// detection files; any other error is treated the same way by the caller,
// since a folder that cannot be read today will not read better tomorrow.
type Parser interface {
	Parse(dir string) ([]*Observation, error)
}
