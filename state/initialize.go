package state

import (
	"time"

	"go.uber.org/zap"

	"pstyle/style"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		Log:          zap.NewNop(),
		DefaultStyle: style.DefaultStylesheet,
		start:        time.Now(),
	}
}
