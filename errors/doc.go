/*
Package errors provides semantic error types for the modelstore library.

The package defines the failure kinds of the query and save layer with specific
types that can be checked using the standard errors.Is() function or the provided
helper functions.

Error Kinds:

	var (
	    ErrConfigurationMissing = errors.New("configuration missing")
	    ErrConnectionFailed     = errors.New("connection failed")
	    ErrQueryFailed          = errors.New("query failed")
	    ErrTransactionFailed    = errors.New("transaction failed")
	)

Asynchronous callbacks receive these errors in place of a result:

	modelstore.QueryAllAsync[User](store, ctx, func(users []User, err error) {
	    if errors.IsConfigurationMissing(err) {
	        // register a configuration for User or set a default one
	        return
	    }
	    ...
	})

ConnectionFailedError, QueryFailedError and TransactionFailedError unwrap to their
cause, so a validation failure inside SaveAll matches both IsTransactionFailed and
IsValidationError.
*/
package errors
