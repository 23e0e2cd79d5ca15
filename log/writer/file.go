package writer

import (
	"fmt"
	"io"
	"path/filepath"
)

// RotateConfig describes where log files live and how they rotate.
type RotateConfig struct {
	Mode             RotateMode
	Filepath         string
	Filename         string
	FileExt          string
	TimeRotateConfig TimeRotateConfig
	SizeRotateConfig SizeRotateConfig
}

// TimeRotateConfig values are in hours.
type TimeRotateConfig struct {
	MaxAge       int
	RotationTime int
}

// SizeRotateConfig mirrors lumberjack: MB, file count, days.
type SizeRotateConfig struct {
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// File returns a rotating file writer for config.
func File(config RotateConfig) (io.Writer, error) {
	switch config.Mode {
	case RotateModeTime:
		return timeRotateWriter(config)
	case RotateModeSize, "":
		return sizeRotateWriter(config)
	default:
		return nil, fmt.Errorf("unsupported rotate mode: %q", config.Mode)
	}
}

func (c *RotateConfig) path(pattern string) string {
	name := c.Filename
	if pattern != "" {
		name += "." + pattern
	}
	return filepath.Join(c.Filepath, name+"."+c.FileExt)
}
