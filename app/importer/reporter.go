package importer

import (
	"log/slog"
)

// Reporter is the error-reporting collaborator: a structured report
// call accepting an error and a context map.
type Reporter interface {
	Report(err error, context map[string]interface{})
}

var _ Reporter = (*SlogReporter)(nil)

// SlogReporter reports errors through the process logger.
type SlogReporter struct{}

func NewSlogReporter() *SlogReporter {
	return &SlogReporter{}
}

func (r *SlogReporter) Report(err error, context map[string]interface{}) {
	args := make([]any, 0, len(context)*2+2)
	args = append(args, "error", err)
	for key, value := range context {
		args = append(args, key, value)
	}
	slog.Error("Import error reported", args...)
}
