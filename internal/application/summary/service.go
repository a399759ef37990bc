// Package summary computes the 28-line compliance report schedule and the
// net compliance units committed to the ledger at assessment. The
// computation is deterministic: fixed-precision decimals everywhere, each
// line item rounded once through the fuel calculation kernel and once to
// whole units.
package summary

import (
	"context"
	"time"

	"lcfs-backend/internal/application/ledger"
	"lcfs-backend/internal/domain"
	"lcfs-backend/internal/fuelcalc"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PenaltyRatePerUnit is the Part 3 non-compliance penalty in dollars per
// outstanding compliance unit.
var PenaltyRatePerUnit = decimal.NewFromInt(600)

// Per-litre penalty rates for a renewable-volume shortfall, by fuel class.
var renewablePenaltyRate = map[string]decimal.Decimal{
	domain.FuelClassGasoline: decimal.RequireFromString("0.30"),
	domain.FuelClassDiesel:   decimal.RequireFromString("0.45"),
	domain.FuelClassJetFuel:  decimal.RequireFromString("0.50"),
}

// RetainedLinesLockYear is the first compliance period whose line 7 and
// line 9 values are frozen from the previous assessed report rather than
// user-entered.
const RetainedLinesLockYear = 2025

type Service struct {
	DB     *gorm.DB
	Ledger *ledger.Service
}

// lookups is the reference data needed to price one report's line items.
type lookups struct {
	period     int
	fuelTypes  map[uint]domain.FuelType
	categories map[uint]domain.FuelCategory
	provisions map[uint]domain.ProvisionOfTheAct
	fuelCodes  map[uint]domain.FuelCode
	targetCI   map[uint]decimal.Decimal // fuel category id -> TCI for the period
	eers       []domain.EnergyEffectivenessRatio
	ucis       []domain.AdditionalCarbonIntensity
}

func (s *Service) loadLookups(tx *gorm.DB, period int) (*lookups, error) {
	l := &lookups{
		period:     period,
		fuelTypes:  map[uint]domain.FuelType{},
		categories: map[uint]domain.FuelCategory{},
		provisions: map[uint]domain.ProvisionOfTheAct{},
		fuelCodes:  map[uint]domain.FuelCode{},
		targetCI:   map[uint]decimal.Decimal{},
	}
	var fuelTypes []domain.FuelType
	if err := tx.Find(&fuelTypes).Error; err != nil {
		return nil, err
	}
	for _, ft := range fuelTypes {
		l.fuelTypes[ft.ID] = ft
	}
	var categories []domain.FuelCategory
	if err := tx.Find(&categories).Error; err != nil {
		return nil, err
	}
	for _, fc := range categories {
		l.categories[fc.ID] = fc
	}
	var provisions []domain.ProvisionOfTheAct
	if err := tx.Find(&provisions).Error; err != nil {
		return nil, err
	}
	for _, p := range provisions {
		l.provisions[p.ID] = p
	}
	var codes []domain.FuelCode
	if err := tx.Find(&codes).Error; err != nil {
		return nil, err
	}
	for _, c := range codes {
		l.fuelCodes[c.ID] = c
	}
	var targets []domain.TargetCarbonIntensity
	if err := tx.Where("compliance_period = ?", period).Find(&targets).Error; err != nil {
		return nil, err
	}
	for _, t := range targets {
		l.targetCI[t.FuelCategoryID] = t.TargetCI
	}
	if err := tx.Find(&l.eers).Error; err != nil {
		return nil, err
	}
	if err := tx.Find(&l.ucis).Error; err != nil {
		return nil, err
	}
	return l, nil
}

func (l *lookups) eer(fuelTypeID, categoryID uint, endUseID *uint) decimal.Decimal {
	var fallback *decimal.Decimal
	for i := range l.eers {
		e := l.eers[i]
		if e.FuelTypeID != fuelTypeID || e.FuelCategoryID != categoryID {
			continue
		}
		if endUseID != nil && e.EndUseTypeID != nil && *e.EndUseTypeID == *endUseID {
			return e.Ratio
		}
		if e.EndUseTypeID == nil {
			fallback = &l.eers[i].Ratio
		}
	}
	if fallback != nil {
		return *fallback
	}
	return decimal.NewFromInt(1)
}

func (l *lookups) uci(fuelTypeID uint, endUseID *uint) decimal.Decimal {
	var fallback decimal.Decimal
	for _, u := range l.ucis {
		if u.FuelTypeID != fuelTypeID {
			continue
		}
		if endUseID != nil && u.EndUseTypeID != nil && *u.EndUseTypeID == *endUseID {
			return u.Intensity
		}
		if u.EndUseTypeID == nil {
			fallback = u.Intensity
		}
	}
	return fallback
}

// recordedCI resolves the carbon intensity claimed for a row from its
// provision of the act: approved fuel code, the fuel's default CI, or the
// prescribed/alternative value recorded on the row itself.
func (l *lookups) recordedCI(provisionID uint, fuelCodeID *uint, fuelTypeID uint, rowCI *decimal.Decimal) (decimal.Decimal, error) {
	prov, ok := l.provisions[provisionID]
	if !ok {
		return decimal.Zero, domain.WrapError(domain.ErrValidation, "unknown provision %d", provisionID)
	}
	switch prov.Method {
	case domain.ProvisionFuelCode:
		if fuelCodeID == nil {
			return decimal.Zero, domain.WrapError(domain.ErrValidation, "provision %q requires a fuel code", prov.Name)
		}
		code, ok := l.fuelCodes[*fuelCodeID]
		if !ok {
			return decimal.Zero, domain.WrapError(domain.ErrValidation, "unknown fuel code %d", *fuelCodeID)
		}
		return code.CarbonIntensity, nil
	case domain.ProvisionDefaultCI:
		ft, ok := l.fuelTypes[fuelTypeID]
		if !ok || ft.DefaultCI == nil {
			return decimal.Zero, domain.WrapError(domain.ErrValidation, "fuel type %d has no default carbon intensity", fuelTypeID)
		}
		return *ft.DefaultCI, nil
	default:
		if rowCI == nil {
			return decimal.Zero, domain.WrapError(domain.ErrValidation, "provision %q requires a recorded carbon intensity", prov.Name)
		}
		return *rowCI, nil
	}
}

func (l *lookups) targetFor(categoryID uint) (decimal.Decimal, error) {
	tci, ok := l.targetCI[categoryID]
	if !ok {
		return decimal.Zero, domain.WrapError(domain.ErrValidation, "no target carbon intensity for category %d in %d", categoryID, l.period)
	}
	return tci, nil
}

// supplyUnits runs the kernel for one fuel-supply row, rounded to whole
// units.
func (l *lookups) supplyUnits(row *domain.FuelSupply) (int64, error) {
	tci, err := l.targetFor(row.FuelCategoryID)
	if err != nil {
		return 0, err
	}
	rci, err := l.recordedCI(row.ProvisionID, row.FuelCodeID, row.FuelTypeID, row.CIOfFuel)
	if err != nil {
		return 0, err
	}
	ft, ok := l.fuelTypes[row.FuelTypeID]
	if !ok {
		return 0, domain.WrapError(domain.ErrValidation, "unknown fuel type %d", row.FuelTypeID)
	}
	density := ft.EnergyDensity
	if row.EnergyDensity != nil {
		density = *row.EnergyDensity
	}
	units := fuelcalc.ComplianceUnits(l.period, fuelcalc.Inputs{
		TCI:           tci,
		EER:           l.eer(row.FuelTypeID, row.FuelCategoryID, row.EndUseTypeID),
		RCI:           rci,
		UCI:           l.uci(row.FuelTypeID, row.EndUseTypeID),
		Quantity:      row.Quantity,
		EnergyDensity: density,
	})
	return units.Round(0).IntPart(), nil
}

func (l *lookups) exportUnits(row *domain.FuelExport) (int64, error) {
	tci, err := l.targetFor(row.FuelCategoryID)
	if err != nil {
		return 0, err
	}
	rci, err := l.recordedCI(row.ProvisionID, row.FuelCodeID, row.FuelTypeID, row.CIOfFuel)
	if err != nil {
		return 0, err
	}
	ft, ok := l.fuelTypes[row.FuelTypeID]
	if !ok {
		return 0, domain.WrapError(domain.ErrValidation, "unknown fuel type %d", row.FuelTypeID)
	}
	units := fuelcalc.ComplianceUnits(l.period, fuelcalc.Inputs{
		TCI:           tci,
		EER:           decimal.NewFromInt(1),
		RCI:           rci,
		Quantity:      row.Quantity,
		EnergyDensity: ft.EnergyDensity,
	})
	// Exports always withdraw: the absolute value of the computed units
	// is charged against the supplier.
	n := units.Round(0).IntPart()
	if n < 0 {
		return n, nil
	}
	return -n, nil
}

func (l *lookups) allocationUnits(row *domain.AllocationAgreement) (int64, error) {
	tci, err := l.targetFor(row.FuelCategoryID)
	if err != nil {
		return 0, err
	}
	rci, err := l.recordedCI(row.ProvisionID, row.FuelCodeID, row.FuelTypeID, nil)
	if err != nil {
		return 0, err
	}
	ft, ok := l.fuelTypes[row.FuelTypeID]
	if !ok {
		return 0, domain.WrapError(domain.ErrValidation, "unknown fuel type %d", row.FuelTypeID)
	}
	units := fuelcalc.ComplianceUnits(l.period, fuelcalc.Inputs{
		TCI:           tci,
		EER:           decimal.NewFromInt(1),
		RCI:           rci,
		Quantity:      row.Quantity,
		EnergyDensity: ft.EnergyDensity,
	})
	n := units.Round(0).IntPart()
	if row.AllocationType == domain.AllocationTo {
		// Responsibility allocated away; the counterparty reports it.
		return -n, nil
	}
	return n, nil
}

// ShouldLockRetainedLines reports whether lines 7 and 9 are frozen from
// the most recent assessed report in the group. True from compliance
// period 2025 onward when such a report exists; government-initiated
// supplementals follow the same rule.
func (s *Service) ShouldLockRetainedLines(tx *gorm.DB, report *domain.ComplianceReport) (bool, *domain.ComplianceReport, error) {
	if report.CompliancePeriod < RetainedLinesLockYear {
		return false, nil, nil
	}
	var prior domain.ComplianceReport
	err := tx.Where("group_uuid = ? AND version < ? AND current_status IN ?",
		report.GroupUUID, report.Version, []string{domain.ReportAssessed, domain.ReportReassessed}).
		Order("version DESC").First(&prior).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	return true, &prior, nil
}

// previouslyAssessedNet sums the nets committed by earlier assessed
// versions of the group. Each assessed version's net is already a delta,
// so the running sum is the cumulative position previously assessed.
func (s *Service) previouslyAssessedNet(tx *gorm.DB, report *domain.ComplianceReport) (int64, error) {
	var priorIDs []uint
	err := tx.Model(&domain.ComplianceReport{}).
		Where("group_uuid = ? AND version < ? AND current_status IN ?",
			report.GroupUUID, report.Version, []string{domain.ReportAssessed, domain.ReportReassessed}).
		Pluck("id", &priorIDs).Error
	if err != nil {
		return 0, err
	}
	if len(priorIDs) == 0 {
		return 0, nil
	}
	var total *int64
	err = tx.Model(&domain.ComplianceReportSummary{}).
		Where("compliance_report_id IN ?", priorIDs).
		Select("SUM(net_compliance_units)").Scan(&total).Error
	if err != nil || total == nil {
		return 0, err
	}
	return *total, nil
}

// priorAssessmentUnitsIn sums the ledger entries committed by earlier
// assessed versions of the group that fall inside the availability window
// for the report's compliance period. Subtracting it from the available
// balance recovers the units the organization had before this group was
// ever assessed, so banked-unit usage is computed from the same base on
// every reassessment and an unchanged supplemental commits a zero delta.
func (s *Service) priorAssessmentUnitsIn(tx *gorm.DB, report *domain.ComplianceReport) (int64, error) {
	var entryIDs []uint
	err := tx.Model(&domain.ComplianceReport{}).
		Where("group_uuid = ? AND version < ? AND transaction_id IS NOT NULL",
			report.GroupUUID, report.Version).
		Pluck("transaction_id", &entryIDs).Error
	if err != nil {
		return 0, err
	}
	if len(entryIDs) == 0 {
		return 0, nil
	}
	cutoff := time.Date(report.CompliancePeriod+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	var total *int64
	err = tx.Model(&domain.Transaction{}).
		Where("id IN ? AND create_date < ?", entryIDs, cutoff).
		Select("SUM(compliance_units)").Scan(&total).Error
	if err != nil || total == nil {
		return 0, err
	}
	return *total, nil
}

// Compute recomputes the summary for a report and saves it, preserving
// the user-editable retained/deferred lines from the previous save. A
// locked summary is returned untouched.
func (s *Service) Compute(ctx context.Context, reportID uint) (*domain.ComplianceReportSummary, error) {
	var out *domain.ComplianceReportSummary
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var report domain.ComplianceReport
		if err := tx.First(&report, reportID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return domain.WrapError(domain.ErrNotFound, "compliance report %d not found", reportID)
			}
			return err
		}
		var err error
		out, err = s.ComputeIn(tx, &report)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ComputeIn is Compute inside an open transaction.
func (s *Service) ComputeIn(tx *gorm.DB, report *domain.ComplianceReport) (*domain.ComplianceReportSummary, error) {
	existing := &domain.ComplianceReportSummary{}
	err := tx.Where("compliance_report_id = ?", report.ID).First(existing).Error
	if err == gorm.ErrRecordNotFound {
		existing = &domain.ComplianceReportSummary{ComplianceReportID: report.ID}
	} else if err != nil {
		return nil, err
	} else if existing.Locked {
		return existing, nil
	}

	l, err := s.loadLookups(tx, report.CompliancePeriod)
	if err != nil {
		return nil, err
	}

	supplies, err := s.EffectiveFuelSupplies(tx, report)
	if err != nil {
		return nil, err
	}
	exports, err := s.EffectiveFuelExports(tx, report)
	if err != nil {
		return nil, err
	}
	notionals, err := s.EffectiveNotionalTransfers(tx, report)
	if err != nil {
		return nil, err
	}
	otherUses, err := s.EffectiveOtherUses(tx, report)
	if err != nil {
		return nil, err
	}
	allocations, err := s.EffectiveAllocationAgreements(tx, report)
	if err != nil {
		return nil, err
	}

	sum := existing

	// Renewable sub-schedule (lines 1-11).
	var fossil, renewable, notional classTotals
	for _, row := range supplies {
		cat, ok := l.categories[row.FuelCategoryID]
		if !ok {
			return nil, domain.WrapError(domain.ErrValidation, "unknown fuel category %d", row.FuelCategoryID)
		}
		ft, ok := l.fuelTypes[row.FuelTypeID]
		if !ok {
			return nil, domain.WrapError(domain.ErrValidation, "unknown fuel type %d", row.FuelTypeID)
		}
		if ft.Fossil {
			fossil.add(cat.Name, row.Quantity)
		}
		if ft.Renewable {
			renewable.add(cat.Name, row.Quantity)
		}
	}
	// Fuel put to other uses does not count toward supplied volume.
	for _, row := range otherUses {
		cat, ok := l.categories[row.FuelCategoryID]
		if !ok {
			return nil, domain.WrapError(domain.ErrValidation, "unknown fuel category %d", row.FuelCategoryID)
		}
		ft := l.fuelTypes[row.FuelTypeID]
		if ft.Fossil {
			fossil.add(cat.Name, row.Quantity.Neg())
		}
		if ft.Renewable {
			renewable.add(cat.Name, row.Quantity.Neg())
		}
	}
	for _, row := range notionals {
		cat, ok := l.categories[row.FuelCategoryID]
		if !ok {
			return nil, domain.WrapError(domain.ErrValidation, "unknown fuel category %d", row.FuelCategoryID)
		}
		q := row.Quantity
		if row.ReceivedOrTransferred == domain.NotionalTransferred {
			q = q.Neg()
		}
		notional.add(cat.Name, q)
	}

	sum.Line1FossilSupplied = fossil.values()
	sum.Line2RenewableSupplied = renewable.values()
	sum.Line3TotalTracked = addClassValues(sum.Line1FossilSupplied, sum.Line2RenewableSupplied)
	sum.Line4RenewableRequired = requiredValues(sum.Line3TotalTracked, l)
	sum.Line5NotionallyTransferred = notional.values()

	locked, prior, err := s.ShouldLockRetainedLines(tx, report)
	if err != nil {
		return nil, err
	}
	sum.Lines7And9Locked = locked
	if locked && prior != nil {
		var priorSummary domain.ComplianceReportSummary
		if err := tx.Where("compliance_report_id = ?", prior.ID).First(&priorSummary).Error; err == nil {
			sum.Line7PreviouslyRetained = priorSummary.Line6Retained
			sum.Line9AddedFromDeferral = priorSummary.Line8Deferred
		}
	}

	sum.Line10NetRenewable = netRenewable(sum)
	sum.Line11Penalty = renewablePenalty(sum.Line4RenewableRequired, sum.Line10NetRenewable)

	// Low-carbon schedule (lines 12-28).
	var supplied, exported, allocated int64
	for i := range supplies {
		n, err := l.supplyUnits(&supplies[i])
		if err != nil {
			return nil, err
		}
		supplied += n
	}
	for i := range exports {
		n, err := l.exportUnits(&exports[i])
		if err != nil {
			return nil, err
		}
		exported += n
	}
	for i := range allocations {
		n, err := l.allocationUnits(&allocations[i])
		if err != nil {
			return nil, err
		}
		allocated += n
	}
	sum.Line12SuppliedUnits = supplied
	sum.Line13ExportedUnits = exported
	sum.Line14AllocationUnits = allocated
	sum.Line15OtherUseUnits = 0

	var credits, debits int64
	for _, n := range []int64{supplied, exported, allocated} {
		if n > 0 {
			credits += n
		} else {
			debits += n
		}
	}
	sum.Line16TotalCredits = credits
	sum.Line17TotalDebits = debits
	previously, err := s.previouslyAssessedNet(tx, report)
	if err != nil {
		return nil, err
	}
	sum.Line18PreviouslyAssessed = previously
	sum.Line19SurplusDeficit = credits + debits
	sum.Line20NetSurplusDeficit = sum.Line19SurplusDeficit - previously

	available, err := s.Ledger.AvailableIn(tx, report.OrganizationID, report.CompliancePeriod)
	if err != nil {
		return nil, err
	}
	sum.Line22AvailableBalance = available

	sum.Line23Credits = credits
	sum.Line24Debits = -debits
	sum.Line25Net = sum.Line19SurplusDeficit

	// Bankable units are the balance the organization holds apart from
	// this group's own earlier assessments. The current available balance
	// already carries those commits when they fall in the same compliance
	// year, so they are added back before capping banked usage. Without
	// this a reassessment of an unchanged deficit report would see the
	// original debit, compute zero usage and refund the banked units.
	priorInWindow, err := s.priorAssessmentUnitsIn(tx, report)
	if err != nil {
		return nil, err
	}
	bankable := available - priorInWindow
	if bankable < 0 {
		bankable = 0
	}

	// Banked units cover a deficit up to the bankable balance; anything
	// beyond is outstanding and draws the penalty. The ledger entry at
	// assessment is the movement from the previously assessed position to
	// the position assessed now, so a supplemental that lowers an assessed
	// surplus commits a negative adjustment even without a deficit.
	if sum.Line19SurplusDeficit < 0 {
		deficit := -sum.Line19SurplusDeficit
		used := deficit
		if used > bankable {
			used = bankable
		}
		sum.Line26aBankedUsed = used
		sum.Line26bBankedAvailable = bankable
		sum.Line26cBankedRemaining = bankable - used
		sum.Line27OutstandingDebits = deficit - used
		sum.NetComplianceUnits = -used - sum.Line18PreviouslyAssessed
	} else {
		sum.Line26aBankedUsed = 0
		sum.Line26bBankedAvailable = bankable
		sum.Line26cBankedRemaining = bankable
		sum.Line27OutstandingDebits = 0
		sum.NetComplianceUnits = sum.Line20NetSurplusDeficit
	}
	sum.Line21NonCompliancePenaltyUnits = sum.Line27OutstandingDebits
	sum.Line28Penalty = decimal.NewFromInt(sum.Line27OutstandingDebits).Mul(PenaltyRatePerUnit)

	if err := tx.Save(sum).Error; err != nil {
		return nil, err
	}
	return sum, nil
}

// Lock marks the summary frozen; called when the report is assessed.
func (s *Service) Lock(tx *gorm.DB, reportID uint) error {
	return tx.Model(&domain.ComplianceReportSummary{}).
		Where("compliance_report_id = ?", reportID).
		Update("locked", true).Error
}

// SetRetainedLines updates the user-editable renewable lines (6 and 8,
// plus 7 and 9 while unlocked) and recomputes the dependent lines.
func (s *Service) SetRetainedLines(ctx context.Context, reportID uint, retained, deferred domain.FuelClassValues, previouslyRetained, addedFromDeferral *domain.FuelClassValues) (*domain.ComplianceReportSummary, error) {
	var out *domain.ComplianceReportSummary
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var report domain.ComplianceReport
		if err := tx.First(&report, reportID).Error; err != nil {
			return domain.WrapError(domain.ErrNotFound, "compliance report %d not found", reportID)
		}
		if !report.Editable() {
			return domain.WrapError(domain.ErrInvalidTransition, "report %d is not editable", reportID)
		}
		var sum domain.ComplianceReportSummary
		if err := tx.Where("compliance_report_id = ?", reportID).First(&sum).Error; err != nil && err != gorm.ErrRecordNotFound {
			return err
		}
		sum.ComplianceReportID = reportID
		sum.Line6Retained = retained
		sum.Line8Deferred = deferred
		if !sum.Lines7And9Locked {
			if previouslyRetained != nil {
				sum.Line7PreviouslyRetained = *previouslyRetained
			}
			if addedFromDeferral != nil {
				sum.Line9AddedFromDeferral = *addedFromDeferral
			}
		}
		if err := tx.Save(&sum).Error; err != nil {
			return err
		}
		var err error
		out, err = s.ComputeIn(tx, &report)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// classTotals accumulates per-fuel-class decimal totals.
type classTotals struct {
	gasoline, diesel, jetFuel decimal.Decimal
}

func (c *classTotals) add(class string, q decimal.Decimal) {
	switch class {
	case domain.FuelClassGasoline:
		c.gasoline = c.gasoline.Add(q)
	case domain.FuelClassDiesel:
		c.diesel = c.diesel.Add(q)
	case domain.FuelClassJetFuel:
		c.jetFuel = c.jetFuel.Add(q)
	}
}

func (c *classTotals) values() domain.FuelClassValues {
	return domain.FuelClassValues{Gasoline: c.gasoline, Diesel: c.diesel, JetFuel: c.jetFuel}
}

func addClassValues(a, b domain.FuelClassValues) domain.FuelClassValues {
	return domain.FuelClassValues{
		Gasoline: a.Gasoline.Add(b.Gasoline),
		Diesel:   a.Diesel.Add(b.Diesel),
		JetFuel:  a.JetFuel.Add(b.JetFuel),
	}
}

func requiredValues(total domain.FuelClassValues, l *lookups) domain.FuelClassValues {
	req := map[string]decimal.Decimal{}
	for _, cat := range l.categories {
		req[cat.Name] = cat.RenewableRequirement
	}
	round2 := func(d decimal.Decimal) decimal.Decimal { return d.Round(2) }
	return domain.FuelClassValues{
		Gasoline: round2(total.Gasoline.Mul(req[domain.FuelClassGasoline])),
		Diesel:   round2(total.Diesel.Mul(req[domain.FuelClassDiesel])),
		JetFuel:  round2(total.JetFuel.Mul(req[domain.FuelClassJetFuel])),
	}
}

// netRenewable is line 10: renewable supplied, plus notional and
// previously retained volumes, minus volumes retained or deferred, plus
// deferral paid back.
func netRenewable(s *domain.ComplianceReportSummary) domain.FuelClassValues {
	per := func(l2, l5, l6, l7, l8, l9 decimal.Decimal) decimal.Decimal {
		return l2.Add(l5).Sub(l6).Add(l7).Sub(l8).Add(l9)
	}
	return domain.FuelClassValues{
		Gasoline: per(s.Line2RenewableSupplied.Gasoline, s.Line5NotionallyTransferred.Gasoline,
			s.Line6Retained.Gasoline, s.Line7PreviouslyRetained.Gasoline,
			s.Line8Deferred.Gasoline, s.Line9AddedFromDeferral.Gasoline),
		Diesel: per(s.Line2RenewableSupplied.Diesel, s.Line5NotionallyTransferred.Diesel,
			s.Line6Retained.Diesel, s.Line7PreviouslyRetained.Diesel,
			s.Line8Deferred.Diesel, s.Line9AddedFromDeferral.Diesel),
		JetFuel: per(s.Line2RenewableSupplied.JetFuel, s.Line5NotionallyTransferred.JetFuel,
			s.Line6Retained.JetFuel, s.Line7PreviouslyRetained.JetFuel,
			s.Line8Deferred.JetFuel, s.Line9AddedFromDeferral.JetFuel),
	}
}

func renewablePenalty(required, net domain.FuelClassValues) decimal.Decimal {
	total := decimal.Zero
	for class, rate := range renewablePenaltyRate {
		var shortfall decimal.Decimal
		switch class {
		case domain.FuelClassGasoline:
			shortfall = required.Gasoline.Sub(net.Gasoline)
		case domain.FuelClassDiesel:
			shortfall = required.Diesel.Sub(net.Diesel)
		case domain.FuelClassJetFuel:
			shortfall = required.JetFuel.Sub(net.JetFuel)
		}
		if shortfall.IsPositive() {
			total = total.Add(shortfall.Mul(rate))
		}
	}
	return total.Round(2)
}
