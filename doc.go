// Package fetch is a Fetch-API-shaped HTTP/1.1 client that runs on top of
// a host socket primitive.
//
// The host (package host) owns sockets and timers and reports progress
// through handle-keyed callbacks. The client keeps a Pool of host sockets:
// idle sockets are reused most-recently-released first, the number of
// sockets in use can be capped, and requests beyond the cap wait in a
// queue ordered by priority and then arrival. A request waiting longer
// than its Timeout is rejected with ErrTimeout.
//
// Each call to Fetch returns a Future that settles exactly once:
//
//	c := fetch.NewClient(nethost.New(nethost.Options{}), fetch.Config{MaxOutstanding: 4})
//	resp, err := c.Fetch("http://example.com/", nil).Await(ctx)
//	if err != nil { return err }
//	text, err := resp.Text()
//
// Bodies are buffered. A Request or Response body can be read once; a
// second read fails with ErrAlreadyRead. Redirects are not followed.
//
// Header names are stored lower-cased and written in canonical form.
// Values added to an existing name are joined with ", ".
package fetch
