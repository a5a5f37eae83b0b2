package ports

// Metrics records domain outcomes
type Metrics interface {
	RPCAttempt(chain, outcome string)
	RateLimitDecision(profile string, allowed bool)
	PaymentVerification(outcome string)
}

// NopMetrics discards everything
type NopMetrics struct{}

func (NopMetrics) RPCAttempt(string, string)      {}
func (NopMetrics) RateLimitDecision(string, bool) {}
func (NopMetrics) PaymentVerification(string)     {}
