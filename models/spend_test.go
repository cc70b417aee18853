package models

import (
	"fmt"
	"sync"
	"testing"
	"tripsplit-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestMoneyColumnsHoldEveryCurrencyPrecision(t *testing.T) {
	widest := utils.CurrencyPrecision("KWD")

	tests := []struct {
		model  interface{}
		fields []string
	}{
		{model: &Spend{}, fields: []string{"Amount", "NormalizedAmount"}},
		{model: &SpendAssignment{}, fields: []string{"ShareAmount", "NormalizedShareAmount"}},
		{model: &ChoiceOption{}, fields: []string{"Price"}},
	}

	for _, tt := range tests {
		s, err := schema.Parse(tt.model, &sync.Map{}, schema.NamingStrategy{})
		require.NoError(t, err)

		for _, name := range tt.fields {
			t.Run(s.Name+"."+name, func(t *testing.T) {
				field := s.LookUpField(name)
				require.NotNil(t, field)

				var precision, scale int32
				_, err := fmt.Sscanf(field.TagSettings["TYPE"], "decimal(%d,%d)", &precision, &scale)
				require.NoError(t, err, field.TagSettings["TYPE"])
				assert.GreaterOrEqual(t, scale, widest)
				assert.GreaterOrEqual(t, precision-scale, int32(12))
			})
		}
	}
}
