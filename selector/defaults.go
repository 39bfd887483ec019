package selector

// Fallback relay sets seeded into a variant's list at cold start when
// the store is empty and the configuration bridge's allow-list is also
// unavailable or empty. Grounded on the original Rust
// relay_selector/defaults.rs, which the distilled spec.md dropped but
// which original_source/_INDEX.md still carries — kept here as the
// last-resort bootstrap so a brand new deployment with no config
// provider response still has somewhere to start from.
var (
	DefaultGeneralRelays = []string{
		"wss://relay.damus.io",
		"wss://nos.lol",
		"wss://relay.snort.social",
	}
	DefaultInboxRelays = []string{
		"wss://relay.damus.io",
		"wss://inbox.nostr.wine",
	}
	DefaultOutboxRelays = []string{
		"wss://relay.damus.io",
		"wss://relay.snort.social",
	}
)
