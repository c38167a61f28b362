package app

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

const testModeEnv = "BACKOFFICE_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

func init() {
	// Clients consume money fields as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

func detectTestMode() {
	testModeFlag.Store(os.Getenv(testModeEnv) == "1")
}

// InTestMode reports whether the application should skip runtime side effects.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}
