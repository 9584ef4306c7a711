// Package application provides application initialization and dependency wiring.
// It encapsulates the creation of the offer store, the instrumented planner,
// handlers, routers, the metrics registry and the HTTP server, keeping the main
// package focused on CLI parsing and orchestration.
package application
