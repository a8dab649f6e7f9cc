package services

import (
	"io"

	"weblog-stats/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLogger(utils.WithOutput(io.Discard)) }
