package intent

import (
	"fmt"
	"strings"
)

// Scenario is one configured helpdesk intent: a lowercase trigger phrase,
// the candidate replies for it, and the explanation data reported when it
// matches.
type Scenario struct {
	Name       string
	Trigger    string   // lowercase substring key
	Replies    []string // first entry is the one spoken
	Confidence int      // 0-100
	Note       string   // verification note for the explanation record
}

// Explanation records why a reply was chosen. Produced only for local
// scenario matches, never for delegated replies.
type Explanation struct {
	Input        string `json:"input"`
	Agent        string `json:"agent"`
	Engine       string `json:"engine"`
	Confidence   int    `json:"confidence"`
	Decision     string `json:"decision"`
	Verification string `json:"verification"`
}

// Catalog is the scenario table, read-only after load.
type Catalog struct {
	scenarios []Scenario
}

// NewCatalog copies scenarios into a Catalog. Matching order is the order
// given here.
func NewCatalog(scenarios []Scenario) *Catalog {
	out := make([]Scenario, len(scenarios))
	copy(out, scenarios)
	return &Catalog{scenarios: out}
}

// Match tests transcript against each trigger by lowercase substring
// containment, in declaration order. The first match wins regardless of
// trigger specificity.
func (c *Catalog) Match(transcript string) (Scenario, bool) {
	lower := strings.ToLower(transcript)
	for _, s := range c.scenarios {
		if s.Trigger != "" && strings.Contains(lower, s.Trigger) {
			return s, true
		}
	}
	return Scenario{}, false
}

func explain(s Scenario, transcript string) *Explanation {
	return &Explanation{
		Input:        transcript,
		Agent:        "scenario-matcher",
		Engine:       "keyword-rules",
		Confidence:   s.Confidence,
		Decision:     fmt.Sprintf("matched scenario %q on trigger %q", s.Name, s.Trigger),
		Verification: s.Note,
	}
}

// DefaultCatalog is the built-in municipal helpdesk scenario table.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Scenario{
		{
			Name:       "power-outage",
			Trigger:    "power outage",
			Replies:    []string{"A power outage has been reported in your area. Our crew is on the way and supply should be restored within two hours. Your complaint number is PWR-1043."},
			Confidence: 95,
			Note:       "trigger phrase appears verbatim in outage complaints",
		},
		{
			Name:       "water-tank",
			Trigger:    "water tank",
			Replies:    []string{"I have scheduled a refill for your water tank. The tanker should reach you within 45 minutes. Your booking number is WTR-2210."},
			Confidence: 92,
			Note:       "tank refill requests reliably contain the phrase water tank",
		},
		{
			Name:       "water-supply",
			Trigger:    "water supply",
			Replies:    []string{"The water supply in your area is under maintenance until 4 PM today. Supply resumes automatically, no action is needed from you."},
			Confidence: 90,
			Note:       "distinct from tank refills, which match first by declaration order",
		},
		{
			Name:       "electricity-bill",
			Trigger:    "electricity bill",
			Replies:    []string{"Your latest electricity bill is 1,240 rupees, due on the 28th. You can pay through the citizen portal or at any collection center."},
			Confidence: 88,
			Note:       "billing questions name the bill explicitly",
		},
		{
			Name:       "street-light",
			Trigger:    "street light",
			Replies:    []string{"The faulty street light has been logged for repair. A maintenance team will attend to it within 24 hours. Your reference number is STL-0877."},
			Confidence: 90,
			Note:       "covers both broken and flickering street light reports",
		},
		{
			Name:       "gas-cylinder",
			Trigger:    "gas cylinder",
			Replies:    []string{"Your gas cylinder booking is confirmed. Delivery is expected within two working days. Your booking number is GAS-5531."},
			Confidence: 89,
			Note:       "cylinder bookings use the phrase gas cylinder",
		},
		{
			Name:       "garbage-collection",
			Trigger:    "garbage",
			Replies:    []string{"A missed garbage collection has been reported for your street. The pickup truck will make an extra round tomorrow morning."},
			Confidence: 87,
			Note:       "broad trigger, declared last among the specific scenarios",
		},
	})
}
