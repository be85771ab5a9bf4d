// Package config provides configuration parsing for arbor tools.
//
// The configuration is stored in arbor.json or arbor.yaml at the project
// root. Both formats share one schema:
//
//	server:
//	  addr: ":8080"
//	  frameBudget: 8ms
//	  forceFirstWalk: true
//	  tracing: true
//	log:
//	  level: debug
//	  format: json
//	export:
//	  bucket: my-site
//	  prefix: pages/
//	  region: eu-west-1
//	demo: todo
//
// # Usage
//
//	cfg, err := config.LoadOptional(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Addr:", cfg.Server.Addr)
package config
