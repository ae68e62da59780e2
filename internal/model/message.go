package model

// Message is one step of a flow, owned by an enterprise. A message may only
// be created when its flow belongs to the pricing plan the enterprise holds.
type Message struct {
	Base
	NumOrder int    `json:"numOrder" gorm:"not null"`
	Body     string `json:"body" gorm:"type:text;not null"`

	EnterpriseID string      `json:"-" gorm:"type:uuid;index;not null"`
	Enterprise   *Enterprise `json:"enterprise,omitempty" gorm:"foreignKey:EnterpriseID"`

	FlowID string `json:"-" gorm:"type:uuid;index;not null"`
	Flow   *Flow  `json:"flow,omitempty" gorm:"foreignKey:FlowID"`
}

// SetEnterprise attaches the owning tenant
func (m *Message) SetEnterprise(id string) {
	m.EnterpriseID = id
	m.Enterprise = nil
}

// MessageDescriptor is the static capability table for Message
var MessageDescriptor = Descriptor{
	Name:          "message",
	HasEnterprise: true,
	UniqueColumns: nil,
	Filterable: map[string]FilterField{
		"numOrder": {Column: "num_order", Type: FilterInt},
		"body":     {Column: "body"},
	},
	Sortable: map[string]string{
		"numOrder":  "num_order",
		"createdAt": "created_at",
	},
	Updatable: map[string]string{
		"numOrder": "num_order",
		"body":     "body",
	},
}
