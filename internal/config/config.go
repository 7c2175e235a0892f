// Package config loads and validates the YAML configuration that drives a
// forecasting trial: bucket definitions, seed balances, scheduled-flow
// tables, policies, tax brackets, inflation parameters, the gain table,
// marketplace premiums, and the household profile (spec §6 "Inputs
// consumed"). It mirrors the teacher's internal/config.InputParser
// (LoadFromFile -> validate -> normalize) but loads this spec's own
// domain shape instead of the teacher's FERS configuration.
package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/forecastlab/montecore/pkg/month"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// HoldingDef is one configured slice of a bucket (spec §6 "Buckets
// config").
type HoldingDef struct {
	AssetClass string           `yaml:"asset_class"`
	Weight     decimal.Decimal  `yaml:"weight"`
	Amount     decimal.Decimal  `yaml:"amount,omitempty"`
	CostBasis  *decimal.Decimal `yaml:"cost_basis,omitempty"`
}

// BucketDef is one named balance container's configuration.
type BucketDef struct {
	Holdings      []HoldingDef `yaml:"holdings"`
	Type          string       `yaml:"type"` // cash|taxable|tax-deferred|tax-free|property|other
	MayGoNegative bool         `yaml:"may_go_negative,omitempty"`
	CashFallback  bool         `yaml:"cash_fallback,omitempty"`
}

// ScheduleRowDef is one row of a Fixed or Recurring scheduled-flow table
// (spec §6 "Scheduled-flow tables"). Month is used for Fixed rows; Start/
// End for Recurring rows.
type ScheduleRowDef struct {
	Month       month.Month     `yaml:"month,omitempty"`
	Start       month.Month     `yaml:"start,omitempty"`
	End         month.Month     `yaml:"end,omitempty"`
	Bucket      string          `yaml:"bucket"`
	Amount      decimal.Decimal `yaml:"amount"`
	Type        string          `yaml:"type"`
	Description string          `yaml:"description,omitempty"`
}

// RefillPolicyDef configures the threshold-refill and emergency-liquidation
// cascades (spec §4.6 "State").
type RefillPolicyDef struct {
	Thresholds           map[string]decimal.Decimal `yaml:"thresholds"`
	RefillAmounts        map[string]decimal.Decimal `yaml:"refill_amounts"`
	Sources              map[string][]string        `yaml:"sources"`
	LiquidationThreshold decimal.Decimal            `yaml:"liquidation_threshold"`
	LiquidationSources   []string                   `yaml:"liquidation_sources"`
	LiquidationTargets   map[string]decimal.Decimal `yaml:"liquidation_targets"`
	TaxableEligibility   month.Month                `yaml:"taxable_eligibility"`
}

// SalaryDef configures one wage earner (spec §4.5 "Salary").
type SalaryDef struct {
	AnnualGross     decimal.Decimal            `yaml:"annual_gross"`
	AnnualBonus     decimal.Decimal            `yaml:"annual_bonus,omitempty"`
	BonusMonth      int                        `yaml:"bonus_month,omitempty"`
	MeritRate       decimal.Decimal            `yaml:"merit_rate,omitempty"`
	MeritMonth      int                        `yaml:"merit_month,omitempty"`
	Targets         map[string]decimal.Decimal `yaml:"targets"`
	RetirementMonth month.Month                `yaml:"retirement_month,omitempty"`
}

// SocialSecurityDef configures one beneficiary's claimed benefit (spec
// §4.5 "Social Security"). FullRetirementAgeMonths is computed from the
// year of BirthMonth via the standard SSA schedule when not explicitly set.
type SocialSecurityDef struct {
	BirthMonth              month.Month     `yaml:"birth_month"`
	ClaimAgeMonths          int             `yaml:"claim_age_months"`
	FullRetirementAgeMonths int             `yaml:"full_retirement_age_months,omitempty"`
	FullBenefit             decimal.Decimal `yaml:"full_benefit"`
	PayoutPct               decimal.Decimal `yaml:"payout_pct,omitempty"`
	Target                  string          `yaml:"target"`
}

// RMDDef configures Required Minimum Distributions (spec §4.5).
type RMDDef struct {
	BirthMonth month.Month                `yaml:"birth_month"`
	StartAge   int                        `yaml:"start_age,omitempty"` // default 75
	RMDMonth   int                        `yaml:"rmd_month"`
	Sources    []string                   `yaml:"sources"`
	Targets    map[string]decimal.Decimal `yaml:"targets"`
}

// SEPPDef configures one 72(t) amortized-payment window (spec §4.5
// "SEPP").
type SEPPDef struct {
	StartMonth month.Month     `yaml:"start_month"`
	EndMonth   month.Month     `yaml:"end_month"`
	Principal  decimal.Decimal `yaml:"principal"`
	Rate       decimal.Decimal `yaml:"rate"`
	AgeAtStart int             `yaml:"age_at_start"`
	Source     string          `yaml:"source"`
	Target     string          `yaml:"target"`
}

// PropertyDef configures mortgage amortization, escrow, and maintenance on
// a single property (spec §4.5 "Property").
type PropertyDef struct {
	APR                decimal.Decimal `yaml:"apr"`
	MonthlyPI          decimal.Decimal `yaml:"monthly_pi"`
	MonthlyTaxes       decimal.Decimal `yaml:"monthly_taxes"`
	MonthlyInsurance   decimal.Decimal `yaml:"monthly_insurance"`
	MaintenanceRate    decimal.Decimal `yaml:"maintenance_rate"`
	MarketValue        decimal.Decimal `yaml:"market_value"`
	RemainingPrincipal decimal.Decimal `yaml:"remaining_principal"`
	CashBucket         string          `yaml:"cash_bucket"`
	StartYear          int             `yaml:"start_year"`
}

// RentDef configures post-sale rent (spec §4.5 "Rent").
type RentDef struct {
	MonthlyAmount  decimal.Decimal `yaml:"monthly_amount"`
	PropertyBucket string          `yaml:"property_bucket"`
	CashBucket     string          `yaml:"cash_bucket"`
	StartYear      int             `yaml:"start_year"`
}

// UnemploymentDef configures one unemployment benefit window (spec §4.5
// "Unemployment").
type UnemploymentDef struct {
	Start         month.Month     `yaml:"start"`
	End           month.Month     `yaml:"end"`
	MonthlyAmount decimal.Decimal `yaml:"monthly_amount"`
	Target        string          `yaml:"target"`
}

// RothPhaseDef is one age-windowed Roth-conversion opportunity (spec §4.8
// "Roth phase").
type RothPhaseDef struct {
	Name            string          `yaml:"name"`
	MinAge          int             `yaml:"min_age"`
	MaxAge          int             `yaml:"max_age"`
	SourceBucket    string          `yaml:"source_bucket"`
	TargetBucket    string          `yaml:"target_bucket"`
	Threshold       decimal.Decimal `yaml:"threshold"`
	AllowConversion bool            `yaml:"allow_conversion"`
	MaxConversion   decimal.Decimal `yaml:"max_conversion"`
	MaxTaxRate      decimal.Decimal `yaml:"max_tax_rate"`
}

// RothConversionDef configures the year-end Roth conversion headroom
// search (spec §4.8 step 1).
type RothConversionDef struct {
	Phases   []RothPhaseDef  `yaml:"phases"`
	StepSize decimal.Decimal `yaml:"step_size,omitempty"` // default $1,000 (spec §9 "Headroom search")
}

// PoliciesDef aggregates every policy-flow and refill/liquidation
// configuration (spec §6 "Policies").
type PoliciesDef struct {
	Refill         RefillPolicyDef     `yaml:"refill"`
	Salary         []SalaryDef         `yaml:"salary,omitempty"`
	SocialSecurity []SocialSecurityDef `yaml:"social_security,omitempty"`
	RMD            *RMDDef             `yaml:"rmd,omitempty"`
	SEPP           *SEPPDef            `yaml:"sepp,omitempty"`
	Property       *PropertyDef        `yaml:"property,omitempty"`
	Rent           *RentDef            `yaml:"rent,omitempty"`
	Unemployment   []UnemploymentDef   `yaml:"unemployment,omitempty"`
	RothConversion RothConversionDef   `yaml:"roth_conversion,omitempty"`
}

// BracketDef is one (min, rate) step of a progressive schedule (spec §4.7
// "Bracket evaluation").
type BracketDef struct {
	Min  decimal.Decimal `yaml:"min"`
	Rate decimal.Decimal `yaml:"rate"`
}

// JurisdictionDef is one ordinary-income tax schedule, labeled (e.g.
// "Federal", "State") so multiple jurisdictions sum (spec §4.7 step 4).
type JurisdictionDef struct {
	Name     string       `yaml:"name"`
	Brackets []BracketDef `yaml:"brackets"`
}

// IRMAATierDef is one Medicare IRMAA surcharge tier (spec §3 "IRMAA
// tiers").
type IRMAATierDef struct {
	MAGICap        decimal.Decimal `yaml:"magi_cap"`
	PartBSurcharge decimal.Decimal `yaml:"part_b_surcharge"`
	PartDSurcharge decimal.Decimal `yaml:"part_d_surcharge"`
}

// TaxBracketsDef is the raw, un-indexed tax configuration, inflation-
// indexed at runtime from BaseYear (spec §3 "Tax Brackets (raw)").
type TaxBracketsDef struct {
	BaseYear              int               `yaml:"base_year"`
	StandardDeduction     decimal.Decimal   `yaml:"standard_deduction"`
	OrdinaryJurisdictions []JurisdictionDef `yaml:"ordinary_jurisdictions"`
	PayrollSocialSecurity []BracketDef      `yaml:"payroll_social_security"`
	PayrollMedicare       []BracketDef      `yaml:"payroll_medicare"`
	LTCGBrackets          []BracketDef      `yaml:"ltcg_brackets"`
	SSInclusionBrackets   []BracketDef      `yaml:"ss_inclusion_brackets"`
	IRMAASchedule         []IRMAATierDef    `yaml:"irmaa_schedule"`
	MedicareBasePartB     decimal.Decimal   `yaml:"medicare_base_part_b"`
	MedicareBasePartD     decimal.Decimal   `yaml:"medicare_base_part_d"`
}

// CategoryProfileDef is a (mean, stddev) inflation profile for one
// scheduled-flow or property-cost category (spec §4.4 "category rates").
type CategoryProfileDef struct {
	Mean   decimal.Decimal `yaml:"mean"`
	StdDev decimal.Decimal `yaml:"stddev"`
}

// InflationDef configures the baseline and per-category inflation draws
// (spec §3 "Inflation Series").
type InflationDef struct {
	BaseYear   int                            `yaml:"base_year"`
	Years      int                            `yaml:"years"`
	Mean       decimal.Decimal                `yaml:"mean"`
	StdDev     decimal.Decimal                `yaml:"stddev"`
	Categories map[string]CategoryProfileDef `yaml:"categories,omitempty"`
}

// RegimeDef is one Low/Average/High monthly-return distribution (spec §3
// "Gain Table").
type RegimeDef struct {
	Mean   decimal.Decimal `yaml:"mean"`
	StdDev decimal.Decimal `yaml:"stddev"`
}

// AssetGainProfileDef is one asset class's full gain-table row plus its
// inflation-regime thresholds (spec §3 "Gain Table", "Inflation
// Thresholds").
type AssetGainProfileDef struct {
	Low     RegimeDef       `yaml:"low"`
	Average RegimeDef       `yaml:"average"`
	High    RegimeDef       `yaml:"high"`
	LowCut  decimal.Decimal `yaml:"low_cut"`
	HighCut decimal.Decimal `yaml:"high_cut"`
}

// MarketplacePremiumsDef configures ACA marketplace premiums (spec §6
// "Marketplace premiums").
type MarketplacePremiumsDef struct {
	CoupleMonthly decimal.Decimal `yaml:"couple_monthly"`
	FamilyMonthly decimal.Decimal `yaml:"family_monthly"`
	CapRate       decimal.Decimal `yaml:"cap_rate"` // e.g. 0.085
}

// YTDBaselineDef carries forward year-to-date totals when a simulation
// begins mid-calendar-year (spec §3 "Profile" YTD baseline).
type YTDBaselineDef struct {
	Salary              decimal.Decimal `yaml:"salary,omitempty"`
	Withdrawals         decimal.Decimal `yaml:"withdrawals,omitempty"`
	Gains               decimal.Decimal `yaml:"gains,omitempty"`
	SocialSecurity      decimal.Decimal `yaml:"social_security,omitempty"`
	FixedIncomeInterest decimal.Decimal `yaml:"fixed_income_interest,omitempty"`
	Unemployment        decimal.Decimal `yaml:"unemployment,omitempty"`
	TaxPaid             decimal.Decimal `yaml:"tax_paid,omitempty"`
}

// ProfileDef is the household-facts configuration (spec §3 "Profile").
type ProfileDef struct {
	BirthMonth           month.Month             `yaml:"birth_month"`
	DependentBirthMonth  month.Month             `yaml:"dependent_birth_month,omitempty"`
	RetirementMonth      month.Month             `yaml:"retirement_month,omitempty"`
	EndMonth             month.Month             `yaml:"end_month"`
	MarriedFilingJointly bool                    `yaml:"married_filing_jointly,omitempty"`
	MAGIByYear           map[int]decimal.Decimal `yaml:"magi_by_year,omitempty"`
	YTDBaseline          YTDBaselineDef          `yaml:"ytd_baseline,omitempty"`
}

// Config is the complete, validated configuration for a forecast trial
// (spec §6 "Inputs consumed"). It is read-only and shared across all trial
// goroutines (spec §5 "Shared resources"); RunTrial never mutates it.
type Config struct {
	Buckets              map[string]BucketDef    `yaml:"buckets"`
	SeedBalances         map[string]decimal.Decimal `yaml:"seed_balances"`
	ScheduledFixed       []ScheduleRowDef        `yaml:"scheduled_fixed,omitempty"`
	ScheduledRecurring   []ScheduleRowDef        `yaml:"scheduled_recurring,omitempty"`
	Policies             PoliciesDef             `yaml:"policies"`
	TaxBrackets          TaxBracketsDef          `yaml:"tax_brackets"`
	Inflation            InflationDef            `yaml:"inflation"`
	GainTable            map[string]AssetGainProfileDef `yaml:"gain_table"`
	MarketplacePremiums  MarketplacePremiumsDef  `yaml:"marketplace_premiums"`
	Profile              ProfileDef              `yaml:"profile"`
	ForecastMonths       int                     `yaml:"forecast_months"`
}

// Load reads, parses, and validates a YAML configuration file (spec §4.0
// "Configuration & serialization", mirrors the teacher's
// InputParser.LoadFromFile).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

// normalize sorts every map-keyed slice the loader derives so that two
// loads of the same file always walk buckets/sources in the same order,
// required for bit-identical trial reproducibility (spec §8 "same inputs
// and same trial index -> bit-identical"), mirroring the teacher's
// InputParser.normalizeConfiguration.
func (c *Config) normalize() {
	for name, b := range c.Buckets {
		sort.SliceStable(b.Holdings, func(i, j int) bool {
			return b.Holdings[i].AssetClass < b.Holdings[j].AssetClass
		})
		c.Buckets[name] = b
	}
}

// BucketOrder returns bucket names in a deterministic order: Cash first
// (if present), then alphabetical. Used to build bucket.Set with stable
// snapshot iteration order regardless of Go's randomized map iteration.
func (c *Config) BucketOrder() []string {
	names := make([]string, 0, len(c.Buckets))
	for name := range c.Buckets {
		if name == "Cash" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if _, ok := c.Buckets["Cash"]; ok {
		names = append([]string{"Cash"}, names...)
	}
	return names
}
