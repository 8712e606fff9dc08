/*
Package modelstore stores Go model values in embedded or remote databases
and keeps query results up to date while data changes.

Every model type is stored with a configuration: the one registered for
the type, else the default configuration of the store. Configurations
select a backend driver (memory, bolt or dynamodb), an optional schema
version and an optional at-rest encryption key.

Reads are asynchronous. Queries are executed on the loop of the store and
their result is handed to a callback as detached copies. Observations
deliver a fresh copy after every committed write that changes the result,
until the subscription is cancelled.

Basic Usage:

	s := modelstore.New()
	defer s.Close()
	s.SetDefaultConfiguration(storagemodels.NewConfiguration("app",
		storagemodels.WithPath("/var/lib/app/models.db")))

	err := modelstore.SaveAll(s, ctx, []User{u1, u2}, nil)

	modelstore.QueryAllAsync(s, ctx, func(users []User, err error) {
		...
	})

	sub := modelstore.ObserveAll[User](s).Subscribe(ctx, func(users []User, err error) {
		...
	})
	defer sub.Cancel()

Models are keyed by their PrimaryKey method or by the PK and SK templates
of an index map registered with registry.RegisterIndexMap. The table of a
model is given by its TableName method or its type name.
*/
package modelstore
