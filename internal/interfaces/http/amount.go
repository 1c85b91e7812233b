package http

import (
	"encoding/json"
	"fmt"

	"fatura/internal/domain/money"
)

// Amount is a money value in a request body. It accepts a JSON number
// ("120.5") or a decimal string ("120,50" or "120.50"); clients that
// cannot represent cents exactly in binary floats should send the string
// form.
type Amount money.Cents

func (a *Amount) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		cents, err := money.ParseDecimal(s)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", s, err)
		}
		*a = Amount(cents)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = Amount(money.FromFloat(f))
	return nil
}

func (a Amount) Cents() money.Cents {
	return money.Cents(a)
}
