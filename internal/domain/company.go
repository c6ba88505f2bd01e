// Package domain holds the core company-directory model shared by all layers.
package domain

import "strconv"

// Dataset values for certification and classification columns. The directory
// is sourced from Korean SME registries, so the raw values are Korean.
const (
	SMETypeTechInnovation = "기술혁신" // innobiz designation
	SMETypeMgmtInnovation = "경영혁신" // mainbiz designation
	DivisionResearchLab   = "연구소"
	VentureAuthority      = "벤처기업확인기관"

	GenderMale   = "남"
	GenderFemale = "여"
)

// Company is one row of the company directory. The search engine only reads
// these records; all mutation happens upstream of the dataset.
type Company struct {
	ID       string `json:"id"`
	BizRegNo string `json:"business_registration_number,omitempty"`

	Name           string `json:"company_name"`
	Representative string `json:"representative,omitempty"`
	Address        string `json:"address,omitempty"`
	PostalCode     string `json:"postal_code,omitempty"`
	Phone          string `json:"phone_number,omitempty"`
	Website        string `json:"website,omitempty"`
	Email          string `json:"email,omitempty"`

	IndustryCode   string `json:"industry_code,omitempty"`
	IndustryMajor  string `json:"industry_major,omitempty"`
	IndustryMiddle string `json:"industry_middle,omitempty"`
	IndustryMinor  string `json:"industry_small,omitempty"`
	MainProduct    string `json:"main_product,omitempty"`

	// EstablishmentDate is kept as the registry string ("2004-03-15" or
	// "20040315"); only the leading year digits are ever interpreted.
	EstablishmentDate string `json:"establishment_date,omitempty"`

	EmployeeCount    *float64 `json:"employee_count,omitempty"`
	Sales            *float64 `json:"sales_amount,omitempty"`
	Profit           *float64 `json:"recent_profit,omitempty"`
	NetIncome        *float64 `json:"net_income,omitempty"`
	RetainedEarnings *float64 `json:"retained_earnings,omitempty"`
	TotalAssets      *float64 `json:"total_assets,omitempty"`
	TotalEquity      *float64 `json:"total_equity,omitempty"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	SMEType                 string `json:"sme_type,omitempty"`
	Division                string `json:"division,omitempty"`
	ConfirmingAuthority     string `json:"confirming_authority,omitempty"`
	VentureConfirmationType string `json:"venture_confirmation_type,omitempty"`

	RepresentativeGender    string `json:"representative_gender,omitempty"`
	RepresentativeBirthYear int    `json:"representative_birth_year,omitempty"`
}

// HasCoordinates reports whether the record can participate in geo-ranked
// listings.
func (c *Company) HasCoordinates() bool {
	return c.Latitude != nil && c.Longitude != nil
}

// EstablishedYear parses the leading four digits of the establishment date.
// Returns 0 when the date is absent or malformed.
func (c *Company) EstablishedYear() int {
	if len(c.EstablishmentDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(c.EstablishmentDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// Location is a geocoded place: the resolver's answer for a free-text
// location query.
type Location struct {
	Latitude  float64
	Longitude float64
	Address   string
}

// FinancialRecord is one fiscal-year row of a company's financial history.
type FinancialRecord struct {
	CompanyID         string   `json:"company_id"`
	Year              int      `json:"year"`
	Revenue           *float64 `json:"revenue,omitempty"`
	NetIncome         *float64 `json:"net_income,omitempty"`
	TotalAssets       *float64 `json:"total_assets,omitempty"`
	TotalLiabilities  *float64 `json:"total_liabilities,omitempty"`
	RetainedEarnings  *float64 `json:"retained_earnings,omitempty"`
	RevenueGrowthRate float64  `json:"revenue_growth_rate"`
}
