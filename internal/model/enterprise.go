package model

// Enterprise is the tenant root: every scoped entity references exactly one
// enterprise, and requests are confined to the enterprise resolved from the
// caller's token.
type Enterprise struct {
	Base
	Name      string `json:"name" gorm:"type:varchar(100);not null"`
	Phone     string `json:"phone" gorm:"type:varchar(30);index;not null"`
	Connected bool   `json:"connected" gorm:"not null;default:false"`

	PricingPlanID *string      `json:"-" gorm:"type:uuid;index"`
	PricingPlan   *PricingPlan `json:"pricingPlan,omitempty" gorm:"foreignKey:PricingPlanID"`

	// Relations
	Profiles []Profile `json:"profiles,omitempty" gorm:"foreignKey:EnterpriseID"`
	Clients  []Client  `json:"clients,omitempty" gorm:"foreignKey:EnterpriseID"`
	Messages []Message `json:"messages,omitempty" gorm:"foreignKey:EnterpriseID"`
}

// UniqueFields lists the values checked against active rows before insert
func (e *Enterprise) UniqueFields() []FieldValue {
	return []FieldValue{{Column: "phone", Value: e.Phone}}
}

// EnterpriseDescriptor is the static capability table for Enterprise
var EnterpriseDescriptor = Descriptor{
	Name:          "enterprise",
	HasEnterprise: false,
	UniqueColumns: []string{"phone"},
	Filterable: map[string]FilterField{
		"name":      {Column: "name"},
		"phone":     {Column: "phone"},
		"connected": {Column: "connected", Type: FilterBool},
	},
	Sortable: map[string]string{
		"name":      "name",
		"phone":     "phone",
		"connected": "connected",
		"createdAt": "created_at",
	},
	Updatable: map[string]string{
		"name":      "name",
		"phone":     "phone",
		"connected": "connected",
	},
}
