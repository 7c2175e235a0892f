package engine

import (
	"fmt"
	"math/rand"

	"github.com/forecastlab/montecore/internal/bucket"
	"github.com/forecastlab/montecore/internal/config"
	"github.com/forecastlab/montecore/internal/ledger"
	"github.com/forecastlab/montecore/internal/logging"
	"github.com/forecastlab/montecore/internal/market"
	"github.com/forecastlab/montecore/internal/policyflow"
	"github.com/forecastlab/montecore/internal/refill"
	"github.com/forecastlab/montecore/internal/tax"
	"github.com/forecastlab/montecore/internal/txn"
	"github.com/forecastlab/montecore/pkg/month"
)

// NewTrial constructs a fully independent Engine for trialIndex: its own
// seeded RNG, bucket Set, Ledger, inflation series, and Transaction
// instances, all derived from the shared, read-only cfg (spec §5 "Shared
// resources" / "trials share no mutable state"). RNG is seeded from
// trialIndex alone, matching the teacher's per-trial seeding in
// fers_montecarlo.go but constructing a private *rand.Rand instead of
// reseeding a package-level source (SPEC_FULL.md §4.0).
func NewTrial(cfg *config.Config, trialIndex int, log logging.Logger) (*Engine, error) {
	rng := rand.New(rand.NewSource(int64(trialIndex)))

	buckets, err := buildBuckets(cfg)
	if err != nil {
		return nil, err
	}

	inflation := market.GenerateSeries(rng, cfg.Inflation.BaseYear, cfg.Inflation.Years, cfg.Inflation.Mean, cfg.Inflation.StdDev)

	categoryProfiles := make(map[string]market.CategoryProfile, len(cfg.Inflation.Categories))
	for name, p := range cfg.Inflation.Categories {
		categoryProfiles[name] = market.CategoryProfile{Mean: p.Mean, StdDev: p.StdDev}
	}
	categories := market.NewCategorySeries(cfg.Inflation.BaseYear, cfg.Inflation.Years,
		market.CategoryProfile{Mean: cfg.Inflation.Mean, StdDev: cfg.Inflation.StdDev}, categoryProfiles)

	gainTable := buildGainTable(cfg)

	profile := buildProfile(cfg)

	seppTxn := buildSEPP(cfg)

	scheduled := buildScheduledFlows(cfg, categories, rng)
	policyFlows := buildPolicyFlows(cfg, inflation, categories, rng)

	refillPolicy := buildRefillPolicy(cfg)

	taxBase, err := buildTaxBase(cfg)
	if err != nil {
		return nil, err
	}

	return &Engine{
		TrialIndex:     trialIndex,
		Log:            log,
		Buckets:        buckets,
		Ledger:         ledger.New(trialIndex),
		Rng:            rng,
		Inflation:      inflation,
		GainTable:      gainTable,
		TaxBase:        taxBase,
		Profile:        profile,
		Premiums:       buildPremiums(cfg, taxBase.IRMAA),
		Roth:           buildRothConfig(cfg),
		SEPP:           seppTxn,
		ScheduledFlows: scheduled,
		PolicyFlows:    policyFlows,
		Refill:         refillPolicy,
		Months:         forecastMonths(cfg, profile),
		YearlyLog:      profile.YTDBaseline,
	}, nil
}

func forecastMonths(cfg *config.Config, profile *Profile) []month.Month {
	start := cfg.Inflation.BaseYear
	r := month.Range{Start: month.New(start, 1), End: profile.EndMonth}
	if !profile.EndMonth.After(month.New(start, 1)) && cfg.ForecastMonths > 0 {
		r.End = month.New(start, 1).Add(cfg.ForecastMonths - 1)
	}
	return r.Months()
}

func buildBuckets(cfg *config.Config) (*bucket.Set, error) {
	var out []*bucket.Bucket
	for _, name := range cfg.BucketOrder() {
		def := cfg.Buckets[name]
		classification := classificationFromString(def.Type)
		seedAmount, hasSeed := cfg.SeedBalances[name]

		holdings := make([]bucket.Holding, len(def.Holdings))
		for i, h := range def.Holdings {
			amount := h.Amount
			if hasSeed {
				amount = seedAmount.Mul(h.Weight)
			}
			holdings[i] = bucket.Holding{
				AssetClass:   h.AssetClass,
				TargetWeight: h.Weight,
				Amount:       amount,
				CostBasis:    h.CostBasis,
			}
		}

		b, err := bucket.New(name, classification, holdings, def.MayGoNegative, def.CashFallback)
		if err != nil {
			return nil, fmt.Errorf("engine: building bucket %q: %w", name, err)
		}
		out = append(out, b)
	}
	return bucket.NewSet(out), nil
}

func classificationFromString(s string) bucket.Classification {
	switch s {
	case "cash":
		return bucket.Cash
	case "taxable":
		return bucket.Taxable
	case "tax-deferred":
		return bucket.TaxDeferred
	case "tax-free":
		return bucket.TaxFree
	case "property":
		return bucket.Property
	default:
		return bucket.Other
	}
}

func buildGainTable(cfg *config.Config) market.GainTable {
	table := make(market.GainTable, len(cfg.GainTable))
	for class, def := range cfg.GainTable {
		table[class] = market.AssetGainProfile{
			Low:     market.RegimeParams{Mean: def.Low.Mean, StdDev: def.Low.StdDev},
			Average: market.RegimeParams{Mean: def.Average.Mean, StdDev: def.Average.StdDev},
			High:    market.RegimeParams{Mean: def.High.Mean, StdDev: def.High.StdDev},
			LowCut:  def.LowCut,
			HighCut: def.HighCut,
		}
	}
	return table
}

func buildProfile(cfg *config.Config) *Profile {
	p := cfg.Profile
	return &Profile{
		BirthMonth:           p.BirthMonth,
		DependentBirthMonth:  p.DependentBirthMonth,
		RetirementMonth:      p.RetirementMonth,
		EndMonth:             p.EndMonth,
		MarriedFilingJointly: p.MarriedFilingJointly,
		MAGIByYear:           p.MAGIByYear,
		YTDBaseline: tax.YearlyLog{
			Salary:                 p.YTDBaseline.Salary,
			Unemployment:           p.YTDBaseline.Unemployment,
			SocialSecurityBenefits: p.YTDBaseline.SocialSecurity,
			FixedIncomeInterest:    p.YTDBaseline.FixedIncomeInterest,
			OrdinaryWithdrawal:     p.YTDBaseline.Withdrawals,
			TaxableGain:            p.YTDBaseline.Gains,
			PaidYTD:                p.YTDBaseline.TaxPaid,
		},
	}
}

func buildPremiums(cfg *config.Config, irmaa tax.IRMAASchedule) PremiumConfig {
	return PremiumConfig{
		MarketplaceCoupleMonthly: cfg.MarketplacePremiums.CoupleMonthly,
		MarketplaceFamilyMonthly: cfg.MarketplacePremiums.FamilyMonthly,
		MarketplaceCapRate:       cfg.MarketplacePremiums.CapRate,
		MedicareBasePartB:        cfg.TaxBrackets.MedicareBasePartB,
		MedicareBasePartD:        cfg.TaxBrackets.MedicareBasePartD,
		IRMAASchedule:            irmaa,
		CashBucket:               bucket.CashBucketName,
	}
}

func buildRothConfig(cfg *config.Config) RothConfig {
	phases := make([]RothPhase, len(cfg.Policies.RothConversion.Phases))
	for i, p := range cfg.Policies.RothConversion.Phases {
		phases[i] = RothPhase{
			Name:            p.Name,
			MinAge:          p.MinAge,
			MaxAge:          p.MaxAge,
			SourceBucket:    p.SourceBucket,
			TargetBucket:    p.TargetBucket,
			Threshold:       p.Threshold,
			AllowConversion: p.AllowConversion,
			MaxConversion:   p.MaxConversion,
			MaxTaxRate:      p.MaxTaxRate,
		}
	}
	return RothConfig{Phases: phases, StepSize: cfg.Policies.RothConversion.StepSize}
}

func buildSEPP(cfg *config.Config) *policyflow.SEPP {
	s := cfg.Policies.SEPP
	if s == nil {
		return nil
	}
	return &policyflow.SEPP{
		StartMonth: s.StartMonth,
		EndMonth:   s.EndMonth,
		Principal:  s.Principal,
		Rate:       s.Rate,
		AgeAtStart: s.AgeAtStart,
		Source:     s.Source,
		Target:     s.Target,
	}
}

func buildScheduledFlows(cfg *config.Config, categories *market.CategorySeries, rng *rand.Rand) []txn.Transaction {
	var out []txn.Transaction
	eligibility := cfg.Policies.Refill.TaxableEligibility

	toRows := func(defs []config.ScheduleRowDef) []txn.ScheduleRow {
		rows := make([]txn.ScheduleRow, len(defs))
		for i, d := range defs {
			rows[i] = txn.ScheduleRow{
				Month: d.Month, Start: d.Start, End: d.End,
				Bucket: d.Bucket, Amount: d.Amount, Type: d.Type, Description: d.Description,
			}
		}
		return rows
	}

	if len(cfg.ScheduledFixed) > 0 {
		out = append(out, txn.NewFixed(toRows(cfg.ScheduledFixed), cfg.Inflation.BaseYear, eligibility, categories, rng))
	}
	if len(cfg.ScheduledRecurring) > 0 {
		out = append(out, txn.NewRecurring(toRows(cfg.ScheduledRecurring), eligibility, categories, rng))
	}
	return out
}

func buildPolicyFlows(cfg *config.Config, inflation *market.Series, categories *market.CategorySeries, rng *rand.Rand) []txn.Transaction {
	var out []txn.Transaction

	for _, s := range cfg.Policies.Salary {
		out = append(out, &policyflow.Salary{
			AnnualGross: s.AnnualGross, AnnualBonus: s.AnnualBonus, BonusMonth: s.BonusMonth,
			MeritRate: s.MeritRate, MeritMonth: s.MeritMonth, Targets: s.Targets, RetirementMonth: s.RetirementMonth,
		})
	}

	for _, ss := range cfg.Policies.SocialSecurity {
		fra := ss.FullRetirementAgeMonths
		if fra == 0 {
			fra = policyflow.FullRetirementAgeMonths(ss.BirthMonth.Year)
		}
		out = append(out, &policyflow.SocialSecurity{
			BirthMonth: ss.BirthMonth, ClaimAgeMonths: ss.ClaimAgeMonths, FullRetirementAgeMonths: fra,
			FullBenefit: ss.FullBenefit, PayoutPct: ss.PayoutPct, Target: ss.Target, Inflation: inflation,
		})
	}

	if r := cfg.Policies.RMD; r != nil {
		startAge := r.StartAge
		if startAge == 0 {
			startAge = 75
		}
		out = append(out, &policyflow.RMD{
			BirthMonth: r.BirthMonth, StartAge: startAge, RMDMonth: r.RMDMonth, Sources: r.Sources, Targets: r.Targets,
		})
	}

	if p := cfg.Policies.Property; p != nil {
		out = append(out, &policyflow.Property{
			APR: p.APR, MonthlyPI: p.MonthlyPI, MonthlyTaxes: p.MonthlyTaxes, MonthlyInsurance: p.MonthlyInsurance,
			MaintenanceRate: p.MaintenanceRate, MarketValue: p.MarketValue, RemainingPrincipal: p.RemainingPrincipal,
			CategorySeries: categories, Rng: rng, StartYear: p.StartYear, CashBucket: p.CashBucket,
		})
	}

	if r := cfg.Policies.Rent; r != nil {
		out = append(out, &policyflow.Rent{
			MonthlyAmount: r.MonthlyAmount, PropertyBucket: r.PropertyBucket, CashBucket: r.CashBucket,
			CategorySeries: categories, Rng: rng, StartYear: r.StartYear,
		})
	}

	for _, u := range cfg.Policies.Unemployment {
		out = append(out, &policyflow.Unemployment{
			Start: u.Start, End: u.End, MonthlyAmount: u.MonthlyAmount, Target: u.Target,
		})
	}

	return out
}

func buildRefillPolicy(cfg *config.Config) *refill.Policy {
	r := cfg.Policies.Refill
	var seppStart, seppEnd month.Month
	if s := cfg.Policies.SEPP; s != nil {
		seppStart, seppEnd = s.StartMonth, s.EndMonth
	}
	return &refill.Policy{
		Thresholds:           r.Thresholds,
		RefillAmounts:        r.RefillAmounts,
		Sources:              r.Sources,
		LiquidationThreshold: r.LiquidationThreshold,
		LiquidationSources:   r.LiquidationSources,
		LiquidationTargets:   r.LiquidationTargets,
		TaxableEligibility:   r.TaxableEligibility,
		SEPPWindowStart:      seppStart,
		SEPPWindowEnd:        seppEnd,
	}
}

func buildTaxBase(cfg *config.Config) (TaxBase, error) {
	t := cfg.TaxBrackets
	if t.BaseYear == 0 {
		return TaxBase{}, fmt.Errorf("engine: tax_brackets.base_year is required")
	}

	jurisdictions := make([]tax.Jurisdiction, len(t.OrdinaryJurisdictions))
	for i, j := range t.OrdinaryJurisdictions {
		jurisdictions[i] = tax.Jurisdiction{Name: j.Name, Brackets: toBrackets(j.Brackets)}
	}

	inclusion := make([]tax.InclusionBracket, len(t.SSInclusionBrackets))
	for i, b := range t.SSInclusionBrackets {
		inclusion[i] = tax.InclusionBracket{Min: b.Min, Rate: b.Rate}
	}

	irmaa := make(tax.IRMAASchedule, len(t.IRMAASchedule))
	for i, tier := range t.IRMAASchedule {
		irmaa[i] = tax.IRMAATier{MAGICap: tier.MAGICap, PartBSurcharge: tier.PartBSurcharge, PartDSurcharge: tier.PartDSurcharge}
	}

	return TaxBase{
		BaseYear: t.BaseYear,
		Brackets: tax.Config{
			StandardDeduction:     t.StandardDeduction,
			OrdinaryJurisdictions: jurisdictions,
			PayrollSocialSecurity: toBrackets(t.PayrollSocialSecurity),
			PayrollMedicare:       toBrackets(t.PayrollMedicare),
			LTCGBrackets:          toBrackets(t.LTCGBrackets),
			SSInclusionBrackets:   inclusion,
		},
		IRMAA: irmaa,
	}, nil
}

func toBrackets(defs []config.BracketDef) []tax.Bracket {
	out := make([]tax.Bracket, len(defs))
	for i, d := range defs {
		out[i] = tax.Bracket{Min: d.Min, Rate: d.Rate}
	}
	return out
}
