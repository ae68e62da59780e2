package model

// Flow is an ordered conversation template. Flows are shared across tenants:
// an enterprise can use a flow when the flow belongs to the pricing plan the
// enterprise currently holds.
type Flow struct {
	Base
	Name        string `json:"name" gorm:"type:varchar(100);index;not null"`
	Description string `json:"description" gorm:"type:text;not null"`

	// Relations
	Messages     []Message     `json:"messages,omitempty" gorm:"foreignKey:FlowID"`
	PricingPlans []PricingPlan `json:"pricingPlans,omitempty" gorm:"many2many:pricing_plans_flows;joinForeignKey:FlowID;joinReferences:PricingPlanID"`
}

// UniqueFields lists the values checked against active rows before insert
func (f *Flow) UniqueFields() []FieldValue {
	return []FieldValue{{Column: "name", Value: f.Name}}
}

// FlowDescriptor is the static capability table for Flow
var FlowDescriptor = Descriptor{
	Name:          "flow",
	HasEnterprise: false,
	UniqueColumns: []string{"name"},
	Filterable: map[string]FilterField{
		"name":        {Column: "name"},
		"description": {Column: "description"},
	},
	Sortable: map[string]string{
		"name":      "name",
		"createdAt": "created_at",
	},
	Updatable: map[string]string{
		"name":        "name",
		"description": "description",
	},
}
