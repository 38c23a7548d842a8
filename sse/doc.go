// Package sse is the server side of Server-Sent Events: a hub that fans
// frames out to connected clients and an HTTP handler that streams them.
//
//	hub := sse.NewHub()
//	go hub.Run()
//	router.GET("/events", func(c *gin.Context) {
//		sse.ServeSSE(hub, c.Writer, c.Request, "inventory:"+uuid.NewString())
//	})
//	hub.Broadcast(sse.Frame{ID: "1", Event: "update", Data: payload})
package sse
