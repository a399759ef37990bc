package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Compliance report statuses (stable strings; removals forbidden).
const (
	ReportDraft                   = "Draft"
	ReportSubmitted               = "Submitted"
	ReportAnalystAdjustment       = "Analyst_adjustment"
	ReportRecommendedByAnalyst    = "Recommended_by_analyst"
	ReportRecommendedByManager    = "Recommended_by_manager"
	ReportNotRecommendedByAnalyst = "Not_recommended_by_analyst"
	ReportNotRecommendedByManager = "Not_recommended_by_manager"
	ReportAssessed                = "Assessed"
	ReportReassessed              = "Reassessed"
	ReportSupplementalRequested   = "Supplemental_requested"
	ReportRejected                = "Rejected"
)

// Reporting frequencies.
const (
	FrequencyAnnual    = "Annual"
	FrequencyQuarterly = "Quarterly"
)

// Supplemental initiators.
const (
	InitiatorSupplier   = "Supplier-initiated"
	InitiatorGovernment = "Government-initiated"
)

// ComplianceReport is one version within a report group. GroupUUID ties
// together the original report and its supplementals/reassessments for
// one (organization, compliance period); Version is 0-based and gapless
// within the group.
type ComplianceReport struct {
	ID               uint      `gorm:"primaryKey" json:"compliance_report_id"`
	OrganizationID   uint      `gorm:"column:organization_id;not null;index" json:"organization_id"`
	CompliancePeriod int       `gorm:"column:compliance_period;not null" json:"compliance_period"`
	GroupUUID        uuid.UUID `gorm:"column:group_uuid;type:uuid;not null;uniqueIndex:idx_report_group_version,priority:1" json:"group_uuid"`
	Version          int       `gorm:"column:version;not null;uniqueIndex:idx_report_group_version,priority:2" json:"version"`
	ChainIndex       int       `gorm:"column:chain_index;not null;default:0" json:"chain_index"`

	ReportingFrequency    string  `gorm:"column:reporting_frequency;type:varchar(10);not null;default:Annual" json:"reporting_frequency"`
	Quarter               *int    `gorm:"column:quarter" json:"quarter"`
	Nickname              string  `gorm:"column:nickname" json:"nickname"`
	SupplementalInitiator *string `gorm:"column:supplemental_initiator;type:varchar(25)" json:"supplemental_initiator"`
	CurrentStatus         string  `gorm:"column:current_status;type:varchar(30);not null;default:Draft" json:"current_status"`

	// TransactionID is set on and only on the transition into Assessed or
	// Reassessed; it references the Adjustment entry committing this
	// version's net compliance units.
	TransactionID *uint `gorm:"column:transaction_id" json:"transaction_id"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Organization *Organization             `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Summary      *ComplianceReportSummary  `gorm:"foreignKey:ComplianceReportID" json:"summary,omitempty"`
	Snapshot     *OrganizationSnapshot     `gorm:"foreignKey:ComplianceReportID" json:"snapshot,omitempty"`
	History      []ComplianceReportHistory `gorm:"foreignKey:ComplianceReportID" json:"history,omitempty"`
}

func (ComplianceReport) TableName() string { return "compliance_reports" }

// Terminal reports whether the version has been through a director
// assessment. Only terminal versions can anchor a new supplemental.
func (r *ComplianceReport) Terminal() bool {
	return r.CurrentStatus == ReportAssessed || r.CurrentStatus == ReportReassessed
}

// Editable reports whether line-item collections may still change.
func (r *ComplianceReport) Editable() bool {
	return r.CurrentStatus == ReportDraft || r.CurrentStatus == ReportAnalystAdjustment
}

// ComplianceReportHistory mirrors transfer history.
type ComplianceReportHistory struct {
	ID                 uint      `gorm:"primaryKey" json:"history_id"`
	ComplianceReportID uint      `gorm:"column:compliance_report_id;not null;index" json:"compliance_report_id"`
	Status             string    `gorm:"column:status;type:varchar(30);not null" json:"status"`
	UserID             uint      `gorm:"column:user_id;not null" json:"user_id"`
	DisplayName        string    `gorm:"column:display_name" json:"display_name"`
	CreatedAt          time.Time `json:"createdAt"`
}

func (ComplianceReportHistory) TableName() string { return "compliance_report_histories" }

// ComplianceReportSummary stores the most recently computed schedule
// lines. Lines 1-11 are the renewable-fuel-volume sub-schedule, held per
// fuel class; the rest are single values. The row locks when the report
// reaches Assessed/Reassessed.
type ComplianceReportSummary struct {
	ID                 uint `gorm:"primaryKey" json:"summary_id"`
	ComplianceReportID uint `gorm:"column:compliance_report_id;not null;uniqueIndex" json:"compliance_report_id"`

	// Renewable sub-schedule, litres, per fuel class.
	Line1FossilSupplied      FuelClassValues `gorm:"embedded;embeddedPrefix:line_1_" json:"line_1_fossil_supplied"`
	Line2RenewableSupplied   FuelClassValues `gorm:"embedded;embeddedPrefix:line_2_" json:"line_2_renewable_supplied"`
	Line3TotalTracked        FuelClassValues `gorm:"embedded;embeddedPrefix:line_3_" json:"line_3_total_tracked"`
	Line4RenewableRequired   FuelClassValues `gorm:"embedded;embeddedPrefix:line_4_" json:"line_4_renewable_required"`
	Line5NotionallyTransferred FuelClassValues `gorm:"embedded;embeddedPrefix:line_5_" json:"line_5_notionally_transferred"`
	Line6Retained            FuelClassValues `gorm:"embedded;embeddedPrefix:line_6_" json:"line_6_retained"`
	Line7PreviouslyRetained  FuelClassValues `gorm:"embedded;embeddedPrefix:line_7_" json:"line_7_previously_retained"`
	Line8Deferred            FuelClassValues `gorm:"embedded;embeddedPrefix:line_8_" json:"line_8_deferred"`
	Line9AddedFromDeferral   FuelClassValues `gorm:"embedded;embeddedPrefix:line_9_" json:"line_9_added_from_deferral"`
	Line10NetRenewable       FuelClassValues `gorm:"embedded;embeddedPrefix:line_10_" json:"line_10_net_renewable"`
	Line11Penalty            decimal.Decimal `gorm:"column:line_11_penalty;type:decimal(15,2);default:0" json:"line_11_penalty"`

	// Low-carbon schedule, compliance units.
	Line12SuppliedUnits        int64 `gorm:"column:line_12_supplied_units;default:0" json:"line_12_supplied_units"`
	Line13ExportedUnits        int64 `gorm:"column:line_13_exported_units;default:0" json:"line_13_exported_units"`
	Line14AllocationUnits      int64 `gorm:"column:line_14_allocation_units;default:0" json:"line_14_allocation_units"`
	Line15OtherUseUnits        int64 `gorm:"column:line_15_other_use_units;default:0" json:"line_15_other_use_units"`
	Line16TotalCredits         int64 `gorm:"column:line_16_total_credits;default:0" json:"line_16_total_credits"`
	Line17TotalDebits          int64 `gorm:"column:line_17_total_debits;default:0" json:"line_17_total_debits"`
	Line18PreviouslyAssessed   int64 `gorm:"column:line_18_previously_assessed;default:0" json:"line_18_previously_assessed"`
	Line19SurplusDeficit       int64 `gorm:"column:line_19_surplus_deficit;default:0" json:"line_19_surplus_deficit"`
	Line20NetSurplusDeficit    int64 `gorm:"column:line_20_net_surplus_deficit;default:0" json:"line_20_net_surplus_deficit"`
	Line21NonCompliancePenaltyUnits int64 `gorm:"column:line_21_penalty_units;default:0" json:"line_21_penalty_units"`
	Line22AvailableBalance     int64 `gorm:"column:line_22_available_balance;default:0" json:"line_22_available_balance"`

	Line23Credits int64 `gorm:"column:line_23_credits;default:0" json:"line_23_credits"`
	Line24Debits  int64 `gorm:"column:line_24_debits;default:0" json:"line_24_debits"`
	Line25Net     int64 `gorm:"column:line_25_net;default:0" json:"line_25_net"`

	Line26aBankedUsed      int64 `gorm:"column:line_26a_banked_used;default:0" json:"line_26a_banked_used"`
	Line26bBankedAvailable int64 `gorm:"column:line_26b_banked_available;default:0" json:"line_26b_banked_available"`
	Line26cBankedRemaining int64 `gorm:"column:line_26c_banked_remaining;default:0" json:"line_26c_banked_remaining"`

	Line27OutstandingDebits int64           `gorm:"column:line_27_outstanding_debits;default:0" json:"line_27_outstanding_debits"`
	Line28Penalty           decimal.Decimal `gorm:"column:line_28_penalty;type:decimal(15,2);default:0" json:"line_28_penalty"`

	NetComplianceUnits int64 `gorm:"column:net_compliance_units;default:0" json:"net_compliance_units"`

	Lines7And9Locked bool `gorm:"column:lines_7_and_9_locked;not null;default:false" json:"lines_7_and_9_locked"`
	Locked           bool `gorm:"column:locked;not null;default:false" json:"locked"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (ComplianceReportSummary) TableName() string { return "compliance_report_summaries" }

// FuelClassValues holds one renewable-schedule line value per fuel class.
type FuelClassValues struct {
	Gasoline decimal.Decimal `gorm:"column:gasoline;type:decimal(20,2);default:0" json:"gasoline"`
	Diesel   decimal.Decimal `gorm:"column:diesel;type:decimal(20,2);default:0" json:"diesel"`
	JetFuel  decimal.Decimal `gorm:"column:jet_fuel;type:decimal(20,2);default:0" json:"jet_fuel"`
}

// OrganizationSnapshot freezes the organization's addresses at report
// submission for auditability.
type OrganizationSnapshot struct {
	ID                 uint   `gorm:"primaryKey" json:"snapshot_id"`
	ComplianceReportID uint   `gorm:"column:compliance_report_id;not null;uniqueIndex" json:"compliance_report_id"`
	OrganizationID     uint   `gorm:"column:organization_id;not null" json:"organization_id"`
	Name               string `gorm:"column:name;not null" json:"name"`
	LegalAddress       string `gorm:"column:legal_address" json:"legal_address"`
	ServiceAddress     string `gorm:"column:service_address" json:"service_address"`
	RecordsAddress     string `gorm:"column:records_address" json:"records_address"`

	CreatedAt time.Time `json:"createdAt"`
}

func (OrganizationSnapshot) TableName() string { return "compliance_report_organization_snapshots" }
