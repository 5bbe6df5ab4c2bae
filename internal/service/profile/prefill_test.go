package profile

import (
	"testing"

	"invitera-service/internal/domain/user"

	"github.com/stretchr/testify/assert"
)

func TestApplyMetadata(t *testing.T) {
	tests := []struct {
		name      string
		meta      map[string]interface{}
		wantFirst string
		wantLast  string
	}{
		{
			name: "explicit given and family names win over full name",
			meta: map[string]interface{}{
				"given_name":  "Grace",
				"family_name": "Wanjiru",
				"full_name":   "Someone Else Entirely",
			},
			wantFirst: "Grace",
			wantLast:  "Wanjiru",
		},
		{
			name: "local signup first and last names",
			meta: map[string]interface{}{
				"first_name": "Brian",
				"last_name":  "Ochieng",
			},
			wantFirst: "Brian",
			wantLast:  "Ochieng",
		},
		{
			name: "full name splits on first space",
			meta: map[string]interface{}{
				"full_name": "Mary Anne Njoroge",
			},
			wantFirst: "Mary",
			wantLast:  "Anne Njoroge",
		},
		{
			name: "single word full name has no last name",
			meta: map[string]interface{}{
				"full_name": "Cher",
			},
			wantFirst: "Cher",
			wantLast:  "",
		},
		{
			name: "given name alone leaves family empty",
			meta: map[string]interface{}{
				"given_name": "Grace",
				"full_name":  "Grace Wanjiru",
			},
			wantFirst: "Grace",
			wantLast:  "",
		},
		{
			name:      "empty metadata",
			meta:      map[string]interface{}{},
			wantFirst: "",
			wantLast:  "",
		},
		{
			name: "whitespace-only full name",
			meta: map[string]interface{}{
				"full_name": "   ",
			},
			wantFirst: "",
			wantLast:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &user.Prefill{}
			applyMetadata(p, tt.meta)
			assert.Equal(t, tt.wantFirst, p.FirstName)
			assert.Equal(t, tt.wantLast, p.LastName)
		})
	}
}
