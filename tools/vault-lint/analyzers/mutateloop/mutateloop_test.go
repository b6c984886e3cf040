package mutateloop_test

import (
	"testing"

	"golang.org/x/tools/go/analysis/analysistest"

	"github.com/ersonp/identity-vault/tools/vault-lint/analyzers/mutateloop"
)

func TestAnalyzer(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, mutateloop.Analyzer, "a")
}
