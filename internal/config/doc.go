// Package config provides configuration parsing for msig services.
//
// The configuration is stored in msig.json in the working directory or one
// of its parents. This package handles loading, saving, and validating it.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "host": "localhost",
//	    "port": 8080,
//	    "callTimeout": "5s"
//	  },
//	  "runtime": {
//	    "maxDepth": 100
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "path": "/metrics",
//	    "namespace": "msig"
//	  },
//	  "demo": {
//	    "tickInterval": "1s"
//	  },
//	  "log": {
//	    "level": "info"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
