// Package config loads slipway project configuration.
//
// Configuration lives in a slipway.yaml (or .json, .toml) file at the
// project root, with environment variables prefixed SLIPWAY_ taking
// precedence. A missing file is fine; every field has a default.
//
// # Configuration File Structure
//
//	name: my-app
//	dist: dist
//	serve:
//	  host: 127.0.0.1
//	  port: 8000
//	  not_found: index.html
//	  metrics: false
//	watch:
//	  paths: [src, assets]
//	  workspace_excludes: [vendor]
//	  debounce: 2s
//	build:
//	  command: [make, dist]
//	publish:
//	  bucket: my-bucket
//	  prefix: previews/my-app
//
// # Usage
//
//	cfg, err := config.Load(project.Root)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Serving on", cfg.Address())
package config
