// Package policyflow implements the Transaction-producing policy state
// machines: salary, Social Security, required minimum distributions, SEPP,
// property, rent, and unemployment (spec §4.5). Each type follows the same
// shape as internal/txn's scheduled flows: embed txn.ZeroGetters, mutate
// state only inside Apply, and expose the month's effect through getters.
package policyflow

import "github.com/shopspring/decimal"

// uniformLifetimeTable is the IRS Uniform Lifetime Table distribution
// period, used for Required Minimum Distributions (spec §4.5 "Required
// Minimum Distribution"). Mirrors the teacher's RMDCalculator table.
var uniformLifetimeTable = map[int]decimal.Decimal{
	72: decimal.NewFromFloat(27.4),
	73: decimal.NewFromFloat(26.5),
	74: decimal.NewFromFloat(25.5),
	75: decimal.NewFromFloat(24.6),
	76: decimal.NewFromFloat(23.7),
	77: decimal.NewFromFloat(22.9),
	78: decimal.NewFromFloat(22.0),
	79: decimal.NewFromFloat(21.1),
	80: decimal.NewFromFloat(20.2),
	81: decimal.NewFromFloat(19.4),
	82: decimal.NewFromFloat(18.5),
	83: decimal.NewFromFloat(17.7),
	84: decimal.NewFromFloat(16.8),
	85: decimal.NewFromFloat(16.0),
	86: decimal.NewFromFloat(15.2),
	87: decimal.NewFromFloat(14.4),
	88: decimal.NewFromFloat(13.7),
	89: decimal.NewFromFloat(12.9),
	90: decimal.NewFromFloat(12.2),
	91: decimal.NewFromFloat(11.5),
	92: decimal.NewFromFloat(10.8),
	93: decimal.NewFromFloat(10.1),
	94: decimal.NewFromFloat(9.5),
	95: decimal.NewFromFloat(8.9),
	96: decimal.NewFromFloat(8.4),
	97: decimal.NewFromFloat(7.8),
	98: decimal.NewFromFloat(7.3),
	99: decimal.NewFromFloat(6.8),
	100: decimal.NewFromFloat(6.4),
}

// UniformLifetimeDivisor returns the IRS distribution period for age,
// holding at the age-100 value for any higher age.
func UniformLifetimeDivisor(age int) decimal.Decimal {
	if period, ok := uniformLifetimeTable[age]; ok {
		return period
	}
	if age > 100 {
		return uniformLifetimeTable[100]
	}
	return decimal.Zero
}

// seppLifeExpectancyTable is the IRS single life expectancy divisor used in
// the 72(t) amortization method, keyed by age at the SEPP start month (spec
// §4.5 "SEPP", §8 worked example: life_expectancy_divisor(55)=29.6).
var seppLifeExpectancyTable = map[int]decimal.Decimal{
	50: decimal.NewFromFloat(34.2),
	51: decimal.NewFromFloat(33.3),
	52: decimal.NewFromFloat(32.3),
	53: decimal.NewFromFloat(31.4),
	54: decimal.NewFromFloat(30.5),
	55: decimal.NewFromFloat(29.6),
	56: decimal.NewFromFloat(28.7),
	57: decimal.NewFromFloat(27.9),
	58: decimal.NewFromFloat(27.0),
	59: decimal.NewFromFloat(26.1),
	60: decimal.NewFromFloat(25.2),
	61: decimal.NewFromFloat(24.4),
	62: decimal.NewFromFloat(23.5),
	63: decimal.NewFromFloat(22.7),
	64: decimal.NewFromFloat(21.8),
	65: decimal.NewFromFloat(21.0),
}

// SEPPLifeExpectancyDivisor returns the single life expectancy divisor for
// age at SEPP start, or the nearest table edge if age falls outside it.
func SEPPLifeExpectancyDivisor(age int) decimal.Decimal {
	if d, ok := seppLifeExpectancyTable[age]; ok {
		return d
	}
	if age < 50 {
		return seppLifeExpectancyTable[50]
	}
	return seppLifeExpectancyTable[65]
}

// FullRetirementAgeMonths returns the Social Security Full Retirement Age,
// in months past the birth month, for birthYear (spec §4.5 "Social
// Security" claim-adjustment rules; same SSA schedule as the teacher's
// Employee.FullRetirementAge, expressed in months here since this package
// works entirely in month arithmetic).
func FullRetirementAgeMonths(birthYear int) int {
	switch {
	case birthYear <= 1937:
		return 65 * 12
	case birthYear == 1938:
		return 65*12 + 2
	case birthYear == 1939:
		return 65*12 + 4
	case birthYear == 1940:
		return 65*12 + 6
	case birthYear == 1941:
		return 65*12 + 8
	case birthYear == 1942:
		return 65*12 + 10
	case birthYear >= 1943 && birthYear <= 1954:
		return 66 * 12
	case birthYear == 1955:
		return 66*12 + 2
	case birthYear == 1956:
		return 66*12 + 4
	case birthYear == 1957:
		return 66*12 + 6
	case birthYear == 1958:
		return 66*12 + 8
	case birthYear == 1959:
		return 66*12 + 10
	default:
		return 67 * 12
	}
}
