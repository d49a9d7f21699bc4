// Package environment holds the coffee shop frontend configuration record:
// the build-mode flag, the backend API base URL and the Auth0 client
// settings. Records are plain values; every accessor returns a copy, so the
// bundled record cannot be changed by its readers.
//
// The variant compiled into a binary is chosen with the prod build tag:
//
//	go build ./...             // development record
//	go build -tags prod ./...  // production record
package environment
