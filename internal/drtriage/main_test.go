package drtriage

import (
	"testing"

	"go.uber.org/goleak"

	"github.com/tuannvm/dr-triage/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig() *config.Config {
	return &config.Config{LLMTimeout: 5, LLMMaxTokens: 256}
}
