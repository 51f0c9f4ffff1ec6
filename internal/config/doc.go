// Package config defines the pathhint configuration file and how it is
// loaded, checked and watched.
//
// A configuration is a single YAML document:
//
//	apiVersion: pathhint.io/v1
//	kind: Server
//	spec:
//	  listener:
//	    address: "${PATHHINT_ADDR:-127.0.0.1:7878}"
//	  routes:
//	    - path: /about
//	      handler: {type: static, body: "<h1>About</h1>"}
//
// ${VAR} and ${VAR:-default} are expanded before parsing; "$$" is a literal
// dollar sign. Unknown keys are errors. ValidateConfig reports every
// problem at once as ValidationErrors.
//
// The route table built from a configuration is fixed for the process
// lifetime. Watcher only reports that the file changed.
package config
