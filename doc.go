// Package slipway keeps a build command and a browser in sync while you
// work: it watches a project for changes, kills and respawns the command,
// and serves the command's output directory over HTTP.
//
// This package implements:
//   - Watch: a debounced recursive file watcher that supervises a command
//   - Supervisor: spawn, graceful terminate, and respawn of one child process
//   - DevServer: a minimal concurrent HTTP server over the dist directory
//   - Project: module metadata (root, module path, dist directory)
//
// # Architecture
//
// A Watch owns the only goroutine that touches the supervised process. It
// forwards filesystem events through exclusion and hidden-path filters,
// drops events that arrive within the debounce interval of the last
// respawn, and otherwise replaces the process. The DevServer runs the
// Watch in the background and serves requests concurrently, one goroutine
// per connection; the two halves share nothing but the served directory.
//
// # Usage
//
//	project, err := slipway.LoadProject(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	server := slipway.NewDevServer(project, slipway.ServerConfig{
//	    Command: &slipway.Command{Name: "go", Args: []string{"run", "./build"}},
//	})
//
//	log.Fatal(server.Start(project.DistDir))
//
// # Protocol
//
// The server speaks a deliberate subset of HTTP/1.1: four statuses, the
// Content-Length and Content-Type headers, and one exchange per
// connection. It is a development convenience, not a production server.
package slipway
