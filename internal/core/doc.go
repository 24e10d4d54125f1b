// Package core holds the page flows of the data-cleaning client.
//
// The package is independent of any UI or transport layer. The web handlers
// and the cleanse command both drive it through [Service], passing a
// [Backend] that carries the signed-in user's token.
//
// # Flows
//
// Control flow is linear per dataset session:
//
//  1. Upload: [ValidateUpload] rejects bad selections without any network
//     call. [Service.StartUpload] then sends the file in the background and
//     fans progress out to [Service.SubscribeProgress]. On success a preview
//     snapshot is cached under the user's preview key and the job
//     completes with a redirect to the profile page.
//  2. Profile: [Service.LoadProfile] renders the cached snapshot first, then
//     the authoritative profile from the backend, which also replaces the
//     snapshot.
//  3. Result: [Service.RunCleaning] runs the fixed cleaning pipeline, then
//     loads the audit trail. Both must succeed.
//  4. Download: [Service.Download] streams the cleaned file into a [Saver].
//
// A [Mount] guards renders against views that were abandoned while a fetch
// was outstanding.
//
// # Error Handling
//
// Errors are mapped to user-facing messages with [MapError]. Each category
// has a code for support reference:
//
//   - FILE001-FILE006: upload selection (size, type, count)
//   - AUTH001-AUTH004: sign-in, token and identity service problems
//   - NET001: the backend did not answer
//   - UPL001-UPL005: upload jobs (busy, expired, cancelled, timed out)
//   - PRF001, CLN001-CLN002, DL001: profile, cleaning, suggestion and download failures
//   - HTTP<status>: other backend error replies, keeping the server message
package core
