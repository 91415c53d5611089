// Package agents implements the prompted roles that sit between the
// pipeline and a text-generation provider: drafter, critic, and reviser,
// plus the post-loop grammar and tone checks. Each role owns its prompt
// and the parsing of the provider's reply into a typed result.
package agents
