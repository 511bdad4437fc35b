// Package stream exposes a dispatcher's live log over websocket, for
// dashboards and in-app log viewers.
//
//	http.Handle("/log", stream.NewHandler(dispatcher, stream.Config{}))
package stream
