// vault-lint is a custom static analyzer for identity-vault conventions.
package main

import (
	"golang.org/x/tools/go/analysis/multichecker"

	"github.com/ersonp/identity-vault/tools/vault-lint/analyzers"
)

func main() {
	multichecker.Main(analyzers.All()...)
}
