package mlfq

// Policy selects how the dispatch loop moves threads between levels.
type Policy struct {
	policy
}

// ParsePolicy creates a new [Policy] from its name. Unrecognised names yield
// the unknown policy, which [New] rejects.
func ParsePolicy(s string) Policy {
	if v, ok := typePolicyMap[s]; ok {
		return Policy{v}
	}
	return Policy{policyUnknown}
}

func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Policy) UnmarshalText(b []byte) error {
	*p = ParsePolicy(string(b))
	return nil
}

// Policies references the supported [Policy] values by name.
//
// MLFQ uses all three levels with demotion. RoundRobin keeps every thread in
// the high level and grants each a full base slice before rotating it to the
// tail.
var Policies = policyContainer{
	MLFQ:       Policy{policyMLFQ},
	RoundRobin: Policy{policyRoundRobin},
}

type policy int

const (
	policyUnknown policy = iota
	policyMLFQ
	policyRoundRobin
)

var (
	strPolicyMap = map[policy]string{
		policyUnknown:    "unknown",
		policyMLFQ:       "mlfq",
		policyRoundRobin: "round-robin",
	}

	typePolicyMap = map[string]policy{
		"mlfq":        policyMLFQ,
		"round-robin": policyRoundRobin,
	}
)

func (p policy) String() string {
	return strPolicyMap[p]
}

func (p policy) IsValid() bool {
	return p == policyMLFQ || p == policyRoundRobin
}

type policyContainer struct {
	MLFQ       Policy
	RoundRobin Policy
}
