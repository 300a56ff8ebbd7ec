// Package cli implements the mcwatch command-line interface.
//
// # Command Structure
//
//	mcwatch monitor   - Watch the server and stop it once it sits empty
//	mcwatch stop      - Stop the server now (and optionally power off)
//	mcwatch backup    - Archive the world directory once
//	mcwatch init      - Create .mcwatch.yaml
//	mcwatch doctor    - Check config, docker, and the server
//	mcwatch version   - Print build information
//
// # Flag Handling
//
// Global flags (--config, --verbose, --no-color) are defined on the root
// command. Command flags override values from the config file and the
// environment; see internal/config for the lookup order.
//
// # Exit Codes
//
// A command exits 0 when the server was stopped cleanly. Configuration
// problems, a lock held by another monitor, and any failed shutdown step exit
// 1 after the failure is printed.
package cli
