// Package sdk provides a typed Go client for the SmartTask REST API.
//
// The client has one method per backend endpoint, attaches the stored
// bearer token to every authenticated request, and reacts to 401 responses
// by clearing the stored session and invoking the unauthorized handler.
// Calls are single round-trips: no retries and no client-side timeout.
//
// Usage:
//
//	kv := storage.NewFilesystemStore(dir)
//	c, _ := sdk.NewClient("http://localhost:8080/api",
//		sdk.WithTokenStore(storage.TokenSource{KV: kv}),
//		sdk.WithUnauthorizedHandler(func() { fmt.Println("please log in") }),
//	)
//
//	tasks, _ := c.OrderedTasks(ctx)
//	fmt.Println(len(tasks))
package sdk
