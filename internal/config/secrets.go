package config

import "strings"

// RedactedConfig returns a copy of cfg with sensitive fields replaced by the
// redaction placeholder "***". Use this when logging or printing the active
// configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg

	redact(&out.Wallet.PrivateKey)
	redact(&out.Wallet.KeyPassword)

	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)

	redact(&out.Redis.Password)

	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)

	redact(&out.Server.APIKey)

	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// RPC URLs often embed provider API keys in the path.
	out.Chains.Lisk.RPCURLs = redactURLs(cfg.Chains.Lisk.RPCURLs)
	out.Chains.Zama.RPCURLs = redactURLs(cfg.Chains.Zama.RPCURLs)

	// Copy slices so callers cannot mutate the original through the redacted
	// copy.
	out.Venues = append([]VenueConfig(nil), cfg.Venues...)
	out.Tokens = append([]TokenConfig(nil), cfg.Tokens...)
	out.ConfidentialPools = make([]PoolConfig, len(cfg.ConfidentialPools))
	for i, p := range cfg.ConfidentialPools {
		redact(&p.KeyRef)
		out.ConfidentialPools[i] = p
	}
	out.Arbitrage.Strategies = append([]string(nil), cfg.Arbitrage.Strategies...)
	out.Arbitrage.PricePairs = append([]string(nil), cfg.Arbitrage.PricePairs...)
	out.Notify.Events = append([]string(nil), cfg.Notify.Events...)
	out.Server.CORSOrigins = append([]string(nil), cfg.Server.CORSOrigins...)

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}

// redactURLs keeps scheme and host and masks everything after them.
func redactURLs(urls []string) []string {
	out := make([]string, len(urls))
	for i, u := range urls {
		out[i] = redactURL(u)
	}
	return out
}

func redactURL(u string) string {
	schemeEnd := 0
	if i := strings.Index(u, "://"); i >= 0 {
		schemeEnd = i + 3
	}
	rest := u[schemeEnd:]
	if i := strings.Index(rest, "/"); i >= 0 && i+1 < len(rest) {
		return u[:schemeEnd+i+1] + redacted
	}
	return u
}
