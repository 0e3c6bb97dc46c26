// Package builtin defines the fixed command surface that exists regardless
// of the remote service schema: collection lookups (entity, device, area,
// floor, label) and the conversational assist command.
//
// Lookup commands bind the same suggestion providers as synthesized
// parameters and return structured detail maps. Assist keeps a per-user
// conversation ID so consecutive messages continue one conversation until
// it expires.
package builtin
