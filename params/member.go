package params

// ProviderCredit is one entry of a provider credit (or credit reversal) list.
type ProviderCredit struct {
	ProviderID   string
	Amount       string
	CurrencyCode string
}

// ProviderCreditList builds the member list sent as ProviderCreditList, where
// each member carries ProviderId and CreditAmount.{Amount,CurrencyCode}.
func ProviderCreditList(credits []ProviderCredit) Value {
	return providerList(credits, "CreditAmount")
}

// ProviderCreditReversalList is ProviderCreditList for reversals, whose amount
// field is named CreditReversalAmount.
func ProviderCreditReversalList(credits []ProviderCredit) Value {
	return providerList(credits, "CreditReversalAmount")
}

func providerList(credits []ProviderCredit, amountField string) Value {
	if len(credits) == 0 {
		return Value{}
	}

	members := make([]Value, 0, len(credits))
	for _, c := range credits {
		members = append(members, Object(NewTree().
			SetString("ProviderId", c.ProviderID).
			Set(amountField, Object(NewTree().
				SetString("Amount", c.Amount).
				SetString("CurrencyCode", c.CurrencyCode),
			)),
		))
	}

	return List(members...)
}
