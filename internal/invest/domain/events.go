package domain

type InvestmentCreated struct {
	InvestmentID      string  `json:"investment_id"`
	UserID            string  `json:"user_id"`
	PackageID         string  `json:"package_id"`
	Amount            float64 `json:"amount"`
	TermMonths        int     `json:"term_months"`
	PaymentIntentID   string  `json:"payment_intent_id"`
	CertificateNumber string  `json:"certificate_number"`
}

type InvestmentActivated struct {
	UserID          string `json:"user_id"`
	PaymentIntentID string `json:"payment_intent_id"`
}
