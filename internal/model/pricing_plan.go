package model

// PricingPlan is a commercial plan; enterprises subscribe to one plan and a
// plan enables a set of flows.
type PricingPlan struct {
	Base
	Name        string  `json:"name" gorm:"type:varchar(100);index;not null"`
	Description string  `json:"description" gorm:"type:text;not null"`
	Price       float64 `json:"price" gorm:"not null"`

	// Relations
	Enterprises []Enterprise `json:"enterprises,omitempty" gorm:"foreignKey:PricingPlanID"`
	Flows       []Flow       `json:"flows,omitempty" gorm:"many2many:pricing_plans_flows;joinForeignKey:PricingPlanID;joinReferences:FlowID"`
}

// TableName keeps the table name used by the original schema
func (PricingPlan) TableName() string {
	return "pricing_plans"
}

// UniqueFields lists the values checked against active rows before insert
func (p *PricingPlan) UniqueFields() []FieldValue {
	return []FieldValue{{Column: "name", Value: p.Name}}
}

// PricingPlanDescriptor is the static capability table for PricingPlan
var PricingPlanDescriptor = Descriptor{
	Name:          "pricingPlan",
	HasEnterprise: false,
	UniqueColumns: []string{"name"},
	Filterable: map[string]FilterField{
		"name":        {Column: "name"},
		"description": {Column: "description"},
		"price":       {Column: "price", Type: FilterFloat},
	},
	Sortable: map[string]string{
		"name":      "name",
		"price":     "price",
		"createdAt": "created_at",
	},
	Updatable: map[string]string{
		"name":        "name",
		"description": "description",
		"price":       "price",
	},
}
