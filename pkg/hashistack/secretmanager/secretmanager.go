package secretmanager

import (
	vault "github.com/hashicorp/vault-client-go"
	"go.uber.org/fx"
)

// Module provides the vault client that config uses to pull database, redis
// and assets credentials. Configured entirely from VAULT_* env vars.
var Module = fx.Module("secretmanager", fx.Provide(ProvideVault))

func ProvideVault() (*vault.Client, error) {
	return vault.New(vault.WithEnvironment())
}
