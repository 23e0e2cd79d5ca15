package log

import (
	"github.com/kochabx/carelink/log/writer"
)

// Config selects level and optional file output. Credential redaction is on
// unless NoRedact is set.
type Config struct {
	Level    string     `json:"level" default:"info" validate:"oneof=trace debug info warn error fatal panic disabled"`
	NoRedact bool       `json:"no_redact"`
	File     FileConfig `json:"file"`
}

// FileConfig describes a rotated log file.
type FileConfig struct {
	Enabled          bool              `json:"enabled"`
	Filepath         string            `json:"filepath" default:"log"`
	Filename         string            `json:"filename" default:"carelink"`
	FileExt          string            `json:"file_ext" default:"log"`
	RotateMode       writer.RotateMode `json:"rotate_mode" default:"size" validate:"oneof=time size"`
	RotatelogsConfig RotatelogsConfig  `json:"rotatelogs_config"`
	LumberjackConfig LumberjackConfig  `json:"lumberjack_config"`
}

// RotatelogsConfig configures rotation by time, in hours.
type RotatelogsConfig struct {
	MaxAge       int `json:"max_age" default:"168"`
	RotationTime int `json:"rotation_time" default:"24"`
}

// LumberjackConfig configures rotation by size.
type LumberjackConfig struct {
	MaxSize    int  `json:"max_size" default:"50"`
	MaxBackups int  `json:"max_backups" default:"5"`
	MaxAge     int  `json:"max_age" default:"30"`
	Compress   bool `json:"compress"`
}

func (c *FileConfig) toWriterConfig() writer.RotateConfig {
	return writer.RotateConfig{
		Filepath: c.Filepath,
		Filename: c.Filename,
		FileExt:  c.FileExt,
		Mode:     c.RotateMode,
		TimeRotateConfig: writer.TimeRotateConfig{
			MaxAge:       c.RotatelogsConfig.MaxAge,
			RotationTime: c.RotatelogsConfig.RotationTime,
		},
		SizeRotateConfig: writer.SizeRotateConfig{
			MaxSize:    c.LumberjackConfig.MaxSize,
			MaxBackups: c.LumberjackConfig.MaxBackups,
			MaxAge:     c.LumberjackConfig.MaxAge,
			Compress:   c.LumberjackConfig.Compress,
		},
	}
}
