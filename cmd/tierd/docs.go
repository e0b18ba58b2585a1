package main

// General API documentation for swaggo. Regenerate docs/ with
// `swag init -g cmd/tierd/docs.go -o docs` and build with -tags=swagger to serve them.
//
// @title           tierd API
// @version         1.0
// @description     HTTP API for tiered model memory management and inference.
//
// @contact.name   tierd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
