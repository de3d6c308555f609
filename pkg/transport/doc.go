// Package transport implements the HTTP interceptor for ServiceBay API
// calls: uniform bearer-token attachment on the way out and a single
// transparent refresh-and-retry on an authorization failure on the way
// back.
//
// # The 401 contract
//
// When a response comes back 401 and the request was not itself a token
// endpoint call, the transport refreshes the token pair once (through
// the shared Refresher so concurrent failures collapse into one refresh
// call) and replays the original request with the new access token. The
// caller sees the replay's result. Everything else — network errors,
// non-401 statuses, 401s on token endpoints, a second 401 on the replay
// — propagates unchanged; nothing is swallowed.
//
// # Usage
//
//	rt := transport.New(store, controller,
//	    transport.WithNavigator(nav),
//	    transport.WithMetrics(transport.NewMetrics()),
//	)
//	client := &http.Client{Transport: rt}
//
// The transport is the only component that mutates the token store as a
// reaction to a failed call; proactive renewal lives in the auth
// controller.
package transport
