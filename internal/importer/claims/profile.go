package claims

// decimalStyle tells how amounts are written.
type decimalStyle int

const (
	// decimalPoint is "1234.56".
	decimalPoint decimalStyle = iota
	// decimalComma is "1.234,56".
	decimalComma
)

// serviceRef tells whether the service column holds an id or a free-text label.
type serviceRef int

const (
	serviceByID serviceRef = iota
	serviceByLabel
)

// Profile describes the column layout of one partner claims export.
// Adding a new layout is just adding a new Profile to the profiles slice.
type Profile struct {
	Name       string
	Comma      rune
	Decimal    decimalStyle
	Service    serviceRef
	DateLayout string

	CustomerCol string
	PlanCol     string // optional
	ServiceCol  string
	AmountCol   string
	PaymentCol  string // optional
	DateCol     string // optional
}

// requiredCols returns the column names that must be present for this profile to match.
func (p Profile) requiredCols() []string {
	return []string{p.CustomerCol, p.ServiceCol, p.AmountCol}
}

// profiles is the ordered list of layouts tried during auto-detection.
var profiles = []Profile{
	{
		Name:        "portal",
		Comma:       ',',
		Decimal:     decimalPoint,
		Service:     serviceByID,
		DateLayout:  "2006-01-02",
		CustomerCol: "customer_id",
		PlanCol:     "plan_id",
		ServiceCol:  "service_id",
		AmountCol:   "amount",
		PaymentCol:  "payment_method",
		DateCol:     "date",
	},
	{
		Name:        "clínica",
		Comma:       ';',
		Decimal:     decimalComma,
		Service:     serviceByLabel,
		DateLayout:  "02-01-2006",
		CustomerCol: "Beneficiário",
		ServiceCol:  "Serviço",
		AmountCol:   "Valor",
		PaymentCol:  "Pagamento",
		DateCol:     "Data",
	},
	{
		Name:        "seguradora",
		Comma:       ';',
		Decimal:     decimalComma,
		Service:     serviceByID,
		DateLayout:  "02-01-2006",
		CustomerCol: "Beneficiário",
		PlanCol:     "Plano",
		ServiceCol:  "Código serviço",
		AmountCol:   "Montante",
		DateCol:     "Data mov.",
	},
}
