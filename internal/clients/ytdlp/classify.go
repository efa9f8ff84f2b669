package ytdlp

import (
	"strings"

	"github.com/oshiworks/streamvault/internal/infrastructure/config"
	"github.com/oshiworks/streamvault/internal/services"
)

// Classifier maps extractor stderr onto the transient/permanent retry
// boundary. The pattern tables come from configuration so the boundary is
// explicit, not inferred per call site.
type Classifier struct {
	transient []string
	permanent []string
}

// NewClassifier builds a classifier from the configured pattern tables.
func NewClassifier(cfg config.Extractor) *Classifier {
	lower := func(in []string) []string {
		out := make([]string, len(in))
		for i, s := range in {
			out[i] = strings.ToLower(s)
		}
		return out
	}
	return &Classifier{
		transient: lower(cfg.TransientPatterns),
		permanent: lower(cfg.PermanentPatterns),
	}
}

// reasonRules map well-known stderr fragments onto stable machine-readable
// reasons, checked before the generic tables.
var reasonRules = []struct {
	fragment string
	reason   string
	class    services.FailureClass
}{
	{"members-only", "members_only_no_access", services.FailurePermanent},
	{"join this channel", "members_only_no_access", services.FailurePermanent},
	{"sign in", "auth_expired", services.FailurePermanent},
	{"cookie", "auth_expired", services.FailurePermanent},
	{"too many requests", "rate_limited", services.FailureTransient},
	{"429", "rate_limited", services.FailureTransient},
	{"does not exist", "channel_not_found", services.FailurePermanent},
	{"404", "channel_not_found", services.FailurePermanent},
}

// Classify inspects stderr output and returns a classified extract error
// wrapping cause.
func (c *Classifier) Classify(stderr string, cause error) *services.ExtractError {
	s := strings.ToLower(stderr)

	for _, rule := range reasonRules {
		if strings.Contains(s, rule.fragment) {
			return &services.ExtractError{Reason: rule.reason, Class: rule.class, Err: cause}
		}
	}
	for _, p := range c.permanent {
		if p != "" && strings.Contains(s, p) {
			return &services.ExtractError{Reason: "extraction_failed", Class: services.FailurePermanent, Err: cause}
		}
	}
	for _, p := range c.transient {
		if p != "" && strings.Contains(s, p) {
			return &services.ExtractError{Reason: "extraction_failed", Class: services.FailureTransient, Err: cause}
		}
	}
	// Unknown extractor failures get the retry budget.
	return &services.ExtractError{Reason: "extraction_failed", Class: services.FailureTransient, Err: cause}
}
