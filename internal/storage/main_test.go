package storage

import (
	"os"
	"testing"

	"dailydigest/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init(false)
	os.Exit(m.Run())
}
