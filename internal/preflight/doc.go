// Package preflight provides readiness checks for the tools, directories and
// services channelgrab depends on.
//
// The CLI "channelgrab check" command renders RunAll and CheckTools as a
// status table. Pipeline commands do not call RunAll; they resolve their own
// binaries through deps.Require so a missing tool fails before any network
// request is made.
package preflight
