/*
Package session manages connections to logical databases and live queries
on them.

A connection is leased per operation with Open and released with Close.
Connections addressing the same logical database (see
storagemodels.Configuration.Key) share one backend and one change hub;
the backend is opened with the first and closed with the last connection.

	err := session.Lease(ctx, cfg, func(c *session.Conn) error {
	    return c.Write(ctx, func(tx *session.WriteTx) error {
	        return tx.Put("User", "u1", data)
	    })
	})

Live queries require a connection opened with a context carrying a
scheduler.Loop. Their results are refreshed on that loop after every
committed write to their table, and listeners are called when the result
changed:

	results, err := conn.FindAllAsync(ctx, "User", query.New().GreaterThan("age", 18))
	remove := results.AddChangeListener(func(r *session.LiveResults, err error) {
	    ...
	})

Closing the connection removes all listeners and invalidates its results.
*/
package session
