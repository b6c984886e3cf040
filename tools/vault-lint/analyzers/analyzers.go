// Package analyzers provides all custom static analyzers for identity-vault.
package analyzers

import (
	"golang.org/x/tools/go/analysis"

	"github.com/ersonp/identity-vault/tools/vault-lint/analyzers/mutateloop"
	"github.com/ersonp/identity-vault/tools/vault-lint/analyzers/secretlog"
)

// All returns all analyzers to run.
func All() []*analysis.Analyzer {
	return []*analysis.Analyzer{
		mutateloop.Analyzer,
		secretlog.Analyzer,
	}
}
