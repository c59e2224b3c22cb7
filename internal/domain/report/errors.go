package report

import "errors"

var (
	ErrReportGenerationFailed = errors.New("failed to generate report")
	ErrReportStorageFailed    = errors.New("failed to store report")
)
