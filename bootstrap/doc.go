// Package bootstrap runs the annotpipe application lifecycle: components
// start in registration order, hooks run around them, a startup summary is
// printed, and everything stops in reverse order on a signal.
//
//	app, err := bootstrap.NewApp(cfg)
//	app.RegisterComponent(annotatorService)
//	app.RegisterComponent(server.NewComponent(srv))
//	err = app.Run(ctx)
package bootstrap
