// Package bootstrap runs a command through a uniform lifecycle: validated
// config, logger, component start in registration order, hooks, and a
// graceful stop in reverse order.
//
// Long-running services call Run, which blocks until SIGINT, SIGTERM or
// context cancellation:
//
//	app, err := bootstrap.NewApp(cfg)
//	app.RegisterComponent(hub)
//	app.RegisterComponent(server.NewComponent(srv))
//	err = app.Run(ctx)
//
// Finite tools call RunTask, which cancels the task on a signal and stops
// the components once it returns.
package bootstrap
