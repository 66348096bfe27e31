package leads

// Financials groups the balance and income figures reported for one fiscal year.
// A nil pointer means the source cell was empty or not numeric.
type Financials struct {
	Revenue     *float64 `json:"revenue,omitempty"`
	Profit      *float64 `json:"profit,omitempty"`
	Assets      *float64 `json:"assets,omitempty"`
	Liabilities *float64 `json:"liabilities,omitempty"`
	Equity      *float64 `json:"equity,omitempty"`
}

// CompanyRecord is one company row as read from the source workbook.
type CompanyRecord struct {
	Row             int        `json:"row"`
	Sequence        string     `json:"sequence,omitempty"`
	TaxID           string     `json:"tax_id"`
	LegalName       string     `json:"legal_name"`
	Supervisor      string     `json:"supervisor,omitempty"`
	Region          string     `json:"region,omitempty"`
	Department      string     `json:"department,omitempty"`
	City            string     `json:"city,omitempty"`
	IndustryCode    string     `json:"industry_code,omitempty"`
	Macrosector     string     `json:"macrosector,omitempty"`
	AccountingGroup string     `json:"accounting_group,omitempty"`
	Y2024           Financials `json:"y2024"`
	Y2023           Financials `json:"y2023"`
}

// AnnotatedRecord is a CompanyRecord enriched by the Engine. Values are produced
// once and treated as read-only by every consumer.
type AnnotatedRecord struct {
	CompanyRecord
	IsTargetLead       bool    `json:"is_target_lead"`
	IndustryCodePrefix string  `json:"industry_code_prefix"`
	RevenueGrowthPct   float64 `json:"revenue_growth_pct"`
	ProfitMarginPct    float64 `json:"profit_margin_pct"`
	DebtRatioPct       float64 `json:"debt_ratio_pct"`
}

// Float returns a pointer to v. It keeps record literals in tests and loaders short.
func Float(v float64) *float64 {
	return &v
}
