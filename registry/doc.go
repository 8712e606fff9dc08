/*
Package registry resolves model types to storage configurations and keys.

Configuration Registry:
Maps Go model types to the storagemodels.Configuration their instances are
stored with. A default configuration covers all types without an own entry:

	reg := registry.NewRegistry()
	reg.SetDefault(storagemodels.NewConfiguration("main", storagemodels.InMemory()))
	reg.Register(registry.TypeOf[User](), auditConfig)

	cfg, err := reg.Resolve(registry.TypeOf[User]())

Resolve fails with errors.ErrConfigurationMissing when neither exists.

Model Registry:
Binds names used in configuration files to Go types:

	registry.RegisterModel[User]("User")

Index Map Registry:
Associates Go types with primary key templates:

	registry.RegisterIndexMap[User](map[string]string{
	    "PK": "USER#{ID}",
	})

	key, err := registry.KeyOf(user) // "USER#42"

Models implementing Keyed or Tabler choose their primary key or table name
themselves.

All registries are safe for concurrent use and are usually populated during
initialization.
*/
package registry
