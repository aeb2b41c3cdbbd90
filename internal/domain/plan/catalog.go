package plan

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Feature is a metered capability
type Feature string

const (
	FeatureAIChats    Feature = "ai_chats"
	FeatureClients    Feature = "clients"
	FeatureReports    Feature = "reports"
	FeatureEmailSends Feature = "email_sends"
)

// Features lists every metered feature in display order
var Features = []Feature{FeatureAIChats, FeatureClients, FeatureReports, FeatureEmailSends}

// Unlimited marks a limit that never denies
const Unlimited = -1

// Plan ids
const (
	Free    = "free"
	Starter = "starter"
	Pro     = "pro"
)

// ErrUnknownPlan is returned for a plan id that is not in the catalog
var ErrUnknownPlan = errors.New("unknown plan")

// IsValid reports whether f is a metered feature
func (f Feature) IsValid() bool {
	switch f {
	case FeatureAIChats, FeatureClients, FeatureReports, FeatureEmailSends:
		return true
	default:
		return false
	}
}

// Monthly reports whether usage of f resets at the start of each month.
// Clients are counted all-time.
func (f Feature) Monthly() bool {
	return f != FeatureClients
}

func (f Feature) String() string {
	return string(f)
}

// Plan is one entry of the catalog
type Plan struct {
	ID       string          `json:"-" yaml:"id"`
	Name     string          `json:"name" yaml:"name"`
	Price    int64           `json:"price" yaml:"price"`
	Currency string          `json:"currency" yaml:"currency"`
	Limits   map[Feature]int `json:"limits" yaml:"limits"`
	Features []string        `json:"features" yaml:"features"`
}

// Limit returns the limit for f; a feature missing from the plan is treated
// as zero so it always denies.
func (p Plan) Limit(f Feature) int {
	if l, ok := p.Limits[f]; ok {
		return l
	}
	return 0
}

// Paid reports whether the plan costs money
func (p Plan) Paid() bool {
	return p.Price > 0
}

// Catalog is the immutable plan table. Build it with NewCatalog,
// DefaultCatalog or LoadCatalog and pass it by value or pointer; nothing
// mutates it after construction.
type Catalog struct {
	plans map[string]Plan
	order []string
}

// NewCatalog validates and freezes a set of plans
func NewCatalog(plans []Plan) (*Catalog, error) {
	if len(plans) == 0 {
		return nil, fmt.Errorf("plan catalog is empty")
	}

	c := &Catalog{plans: make(map[string]Plan, len(plans))}
	for _, p := range plans {
		if p.ID == "" {
			return nil, fmt.Errorf("plan without id")
		}
		if _, dup := c.plans[p.ID]; dup {
			return nil, fmt.Errorf("duplicate plan %q", p.ID)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("plan %q: negative price", p.ID)
		}
		limits := make(map[Feature]int, len(Features))
		for _, f := range Features {
			l, ok := p.Limits[f]
			if !ok {
				return nil, fmt.Errorf("plan %q: missing limit for %s", p.ID, f)
			}
			if l < Unlimited {
				return nil, fmt.Errorf("plan %q: invalid limit %d for %s", p.ID, l, f)
			}
			limits[f] = l
		}
		for f := range p.Limits {
			if !f.IsValid() {
				return nil, fmt.Errorf("plan %q: unknown feature %q", p.ID, f)
			}
		}
		p.Limits = limits
		p.Features = append([]string(nil), p.Features...)
		if p.Currency == "" {
			p.Currency = "AOA"
		}
		c.plans[p.ID] = p
		c.order = append(c.order, p.ID)
	}

	if _, ok := c.plans[Free]; !ok {
		return nil, fmt.Errorf("plan catalog must contain %q", Free)
	}

	sort.SliceStable(c.order, func(i, j int) bool {
		return c.plans[c.order[i]].Price < c.plans[c.order[j]].Price
	})
	return c, nil
}

// Get returns the plan with the given id
func (c *Catalog) Get(id string) (Plan, error) {
	p, ok := c.plans[id]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, id)
	}
	return clonePlan(p), nil
}

// Has reports whether id is in the catalog
func (c *Catalog) Has(id string) bool {
	_, ok := c.plans[id]
	return ok
}

// Limit returns the limit of feature f for plan id
func (c *Catalog) Limit(id string, f Feature) (int, error) {
	p, ok := c.plans[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPlan, id)
	}
	return p.Limit(f), nil
}

// IDs returns the plan ids ordered by price
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.order...)
}

// All returns copies of every plan ordered by price
func (c *Catalog) All() []Plan {
	out := make([]Plan, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, clonePlan(c.plans[id]))
	}
	return out
}

func clonePlan(p Plan) Plan {
	limits := make(map[Feature]int, len(p.Limits))
	for k, v := range p.Limits {
		limits[k] = v
	}
	p.Limits = limits
	p.Features = append([]string(nil), p.Features...)
	return p
}

// DefaultPlans returns the built-in plan table
func DefaultPlans() []Plan {
	return []Plan{
		{
			ID:       Free,
			Name:     "Gratuito",
			Price:    0,
			Currency: "AOA",
			Limits: map[Feature]int{
				FeatureAIChats:    10,
				FeatureClients:    10,
				FeatureReports:    2,
				FeatureEmailSends: 20,
			},
			Features: []string{
				"10 consultas de IA por mês",
				"Até 10 clientes no CRM",
				"2 relatórios por mês",
				"20 emails por mês",
			},
		},
		{
			ID:       Starter,
			Name:     "Starter",
			Price:    15000,
			Currency: "AOA",
			Limits: map[Feature]int{
				FeatureAIChats:    100,
				FeatureClients:    100,
				FeatureReports:    20,
				FeatureEmailSends: 500,
			},
			Features: []string{
				"100 consultas de IA por mês",
				"Até 100 clientes no CRM",
				"20 relatórios por mês",
				"500 emails por mês",
				"Exportação de relatórios em PDF",
			},
		},
		{
			ID:       Pro,
			Name:     "Pro",
			Price:    35000,
			Currency: "AOA",
			Limits: map[Feature]int{
				FeatureAIChats:    Unlimited,
				FeatureClients:    Unlimited,
				FeatureReports:    Unlimited,
				FeatureEmailSends: Unlimited,
			},
			Features: []string{
				"Consultas de IA ilimitadas",
				"Clientes ilimitados",
				"Relatórios ilimitados",
				"Emails ilimitados",
				"Consultoria via WhatsApp",
				"Suporte prioritário",
			},
		},
	}
}

// DefaultCatalog returns the built-in catalog
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultPlans())
	if err != nil {
		panic(err)
	}
	return c
}

type catalogFile struct {
	Plans []Plan `yaml:"plans"`
}

// LoadCatalog reads a catalog from a YAML file. An empty path returns the
// built-in defaults.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog builds a catalog from YAML bytes
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse plan catalog: %w", err)
	}
	return NewCatalog(f.Plans)
}
