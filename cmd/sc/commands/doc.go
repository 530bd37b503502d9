// Package commands defines the sc CLI.
//
// Commands
//
//   - init       Create the database and a fresh identity
//   - identity   Print the public key and fingerprint
//   - settings   Show or change user settings
//   - contact    Add, list, remove, block, unblock and import contacts
//   - serve      Listen for calls and keep contact liveness up to date
//   - call       Place a call to a contact
//   - ping       Check which contacts are reachable
//   - events     List or clear the call history
//
// # Implementation
//
// The root command loads the YAML config, applies flag overrides, sets up
// logging and builds the store before any subcommand runs. Commands that need
// the identity unlock the database with the passphrase given by -p; "-p -"
// prompts for it on the terminal.
package commands
