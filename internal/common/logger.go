package common

import (
	"github.com/ternarybob/arbor"
	arborcommon "github.com/ternarybob/arbor/common"
	"github.com/ternarybob/arbor/models"
)

// NewLogger builds the process logger from Config: console writer added
// when configured (or by default when no file writer is configured),
// file writer added when configured, level parsed from the config
// string.
func NewLogger(cfg *LoggingConfig) arbor.ILogger {
	logger := arbor.NewLogger()

	hasFile := false
	hasConsole := false
	for _, out := range cfg.Output {
		switch out {
		case "file":
			hasFile = true
		case "stdout", "console":
			hasConsole = true
		}
	}

	if hasFile {
		logger = logger.WithFileWriter(writerConfig(models.LogWriterTypeFile, "gradepipeline.log"))
	}
	if hasConsole || !hasFile {
		logger = logger.WithConsoleWriter(writerConfig(models.LogWriterTypeConsole, ""))
	}

	return logger.WithLevelFromString(cfg.Level)
}

func writerConfig(writerType models.LogWriterType, filename string) models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:             writerType,
		FileName:         filename,
		TimeFormat:       "15:04:05.000",
		DisableTimestamp: false,
		MaxSize:          100 * 1024 * 1024,
		MaxBackups:       3,
	}
}

// Stop flushes any buffered log writers before process exit.
func Stop() {
	arborcommon.Stop()
}
