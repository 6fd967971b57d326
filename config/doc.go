// Package config loads gateway configuration from YAML files and the
// environment.
//
// Configuration comes from three layers, later layers winning: a config.yml
// file, a .env file, and process environment variables. Service definitions
// live under the services key, one entry per backend:
//
//	services:
//	  search:
//	    endpoint: http://search.internal:8080
//	    auth:
//	      type: bearer
//	      credentials:
//	        token: ${SEARCH_TOKEN}
//	    rate_limit:
//	      requests_per_minute: 120
package config
