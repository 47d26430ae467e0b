// Package addon defines the catalog entry of a project add-on and its
// option model.
//
// A Definition describes everything the resolver and compiler need to know
// about one add-on:
//
//   - Identity and presentation: ID, Name, Description, Category
//   - Resolution: Requires (transitive), ExclusiveGroups, RequiresCapability
//   - Compilation: Files (whole files the add-on creates) and Injections
//     (fragments spliced after named markers in existing files)
//   - Configuration: Options, a typed schema whose values are OptionValue
//
// Definitions are plain values. Once handed to a catalog they must be treated
// as immutable; use Clone before changing a definition obtained from one.
//
// # Documents
//
// Definitions decode from JSON or YAML:
//
//	id: auth-oauth
//	name: OAuth
//	description: OAuth login flow
//	category: auth
//	requires: [http-client]
//	exclusiveGroups: [auth]
//	options:
//	  provider:
//	    type: enum
//	    default: github
//	    values: [github, google]
//	files:
//	  src/auth.ts: "export const provider = '{{provider}}'\n"
//	injections:
//	  src/app.ts:
//	    - marker: "// INSERT:middleware"
//	      content: "app.use(oauth())"
package addon
